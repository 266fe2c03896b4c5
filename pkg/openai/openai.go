package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o"

	// DefaultWhisperModel is the default transcription model.
	DefaultWhisperModel = "whisper-1"
)

// IOpenAI defines the interface for the OpenAI client: chat completion for
// task extraction plus audio transcription for voice messages.
type IOpenAI interface {
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Client is the HTTP client for the OpenAI API.
type Client struct {
	apiKey       string
	model        string
	whisperModel string
	baseURL      string
	client       *http.Client
}

// New creates a new OpenAI client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = DefaultWhisperModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		whisperModel: cfg.WhisperModel,
		baseURL:      cfg.BaseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	return c.model
}

// GenerateContent sends a chat-completions request.
func (c *Client) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, respBody)
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// Transcribe converts audio bytes into a transcript via the Whisper API.
// Any failure is wrapped in a TranscriptionError.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if err := mw.WriteField("model", c.whisperModel); err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &TranscriptionError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &TranscriptionError{Err: apiError(resp.StatusCode, respBody)}
	}

	var result transcribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &TranscriptionError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return result.Text, nil
}

func apiError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("API error %d: %s", status, string(body))
	}
	return fmt.Errorf("API error %d: %s", status, errResp.Error.Message)
}
