package llmprovider

import (
	"context"
	"fmt"
	"time"

	"speaktodo/pkg/log"
	"speaktodo/pkg/retry"
)

// Manager orchestrates provider selection, fallback, and retry.
type Manager struct {
	providers []Provider
	config    *Config
	logger    log.Logger
}

// Config defines configuration for the provider manager.
type Config struct {
	FallbackEnabled bool
	RetryAttempts   int
	RetryDelay      time.Duration
	MaxTotalTimeout time.Duration // budget for the entire fallback chain
}

// NewManager creates a new provider manager.
func NewManager(providers []Provider, config *Config, logger log.Logger) *Manager {
	return &Manager{
		providers: providers,
		config:    config,
		logger:    logger,
	}
}

// GenerateContent tries providers in priority order. Each provider gets a
// bounded retry; on exhaustion the next provider is tried unless fallback
// is disabled.
func (m *Manager) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if len(m.providers) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	if m.config.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.MaxTotalTimeout)
		defer cancel()
	}

	policy := retry.Policy{
		MaxAttempts: m.config.RetryAttempts,
		BaseDelay:   m.config.RetryDelay,
	}

	var lastErr error
	for _, provider := range m.providers {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("provider chain timeout: %w", ctx.Err())
		default:
		}

		var resp *Response
		err := policy.Do(ctx, func() error {
			var genErr error
			resp, genErr = provider.GenerateContent(ctx, req)
			return genErr
		})
		if err == nil {
			m.logger.Infof(ctx, "llm generation ok: provider=%s model=%s in=%d out=%d",
				provider.Name(), provider.Model(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
			return resp, nil
		}

		m.logger.Warnf(ctx, "llm generation failed: provider=%s model=%s err=%v",
			provider.Name(), provider.Model(), err)
		lastErr = err

		if !m.config.FallbackEnabled {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
}
