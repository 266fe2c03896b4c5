package monday

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrNoSubitemsColumn is returned when the parent board has no subitems
// column, so child records cannot be created at all.
var ErrNoSubitemsColumn = errors.New("board has no subitems column")

// APIError is a non-200 HTTP response from the Monday API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("monday API error %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the HTTP status is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
}

// GraphQLError is an errors array returned alongside HTTP 200.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("monday GraphQL errors: %s", strings.Join(e.Messages, "; "))
}

// Transient reports whether the GraphQL error carries a rate-limit or
// complexity-budget hint, which the API documents as retryable.
func (e *GraphQLError) Transient() bool {
	joined := strings.ToLower(strings.Join(e.Messages, " "))
	for _, hint := range []string{"rate limit", "complexity", "budget exhausted"} {
		if strings.Contains(joined, hint) {
			return true
		}
	}
	return false
}

// IsTransient classifies an error for retry purposes: network timeouts,
// deadline expiry, 429/5xx responses, and rate/complexity GraphQL hints are
// transient; everything else (validation, permissions) is fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.Transient()
	}
	// Raw connection failures from the transport.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
