package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"speaktodo/pkg/log"
	"speaktodo/pkg/retry"
)

const (
	// DefaultAPIURL is the Monday GraphQL endpoint.
	DefaultAPIURL = "https://api.monday.com/v2"

	defaultTimeout = 30 * time.Second

	// verifyTimeout bounds the re-query that checks whether a timed-out
	// mutation landed anyway.
	verifyTimeout = 10 * time.Second

	// maxRetryAfter caps how long a Retry-After header can make an
	// attempt wait before the normal backoff takes over.
	maxRetryAfter = 30 * time.Second
)

// ErrMissingToken is returned when the client is constructed without an API
// token.
var ErrMissingToken = errors.New("monday: API token is required")

// Config holds connection settings for the Monday API.
type Config struct {
	APIToken string
	APIURL   string
	// ProxyURL routes API traffic through an HTTP(S) proxy when set.
	ProxyURL string
	// RequestsPerSecond throttles outgoing calls. Zero disables the
	// throttle.
	RequestsPerSecond float64
	// Retry controls backoff for transient failures. Zero value uses
	// retry.Default.
	Retry retry.Policy
}

// Client talks to the Monday GraphQL API.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	l          log.Logger
}

// NewClient builds a Monday API client.
func NewClient(cfg Config, l log.Logger) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, ErrMissingToken
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("monday: invalid proxy URL: %w", err)
		}
		base, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			base = &http.Transport{}
		}
		t := base.Clone()
		t.Proxy = http.ProxyURL(proxyURL)
		transport = t
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	policy.Retryable = IsTransient

	if l == nil {
		l = log.NewNop()
	}

	return &Client{
		apiURL:     apiURL,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: defaultTimeout, Transport: transport},
		limiter:    limiter,
		policy:     policy,
		l:          l,
	}, nil
}

// Execute runs a GraphQL query and returns the raw data payload. Transient
// failures (429, 5xx, rate-limit and complexity hints) are retried with
// jittered backoff; a Retry-After header is honored up to a cap.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("monday: encode request: %w", err)
	}

	var data json.RawMessage
	err = c.policy.Do(ctx, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		data, err = c.post(ctx, body)
		return err
	})
	return data, err
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("monday: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monday: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("monday: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.waitRetryAfter(ctx, resp.Header.Get("Retry-After"))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("monday: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &GraphQLError{Messages: messages}
	}
	return envelope.Data, nil
}

// waitRetryAfter sleeps for the server-advised delay before the retry policy
// adds its own backoff.
func (c *Client) waitRetryAfter(ctx context.Context, header string) {
	if header == "" {
		return
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return
	}
	delay := time.Duration(seconds) * time.Second
	if delay > maxRetryAfter {
		delay = maxRetryAfter
	}
	if c.l != nil {
		c.l.Warnf(ctx, "monday rate limited, waiting %s", delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
