package middleware

import (
	"speaktodo/pkg/log"
)

// Config holds webhook protection settings.
type Config struct {
	// SecretToken must match the X-Telegram-Bot-Api-Secret-Token header
	// Telegram echoes back on every webhook call. Empty disables the
	// check.
	SecretToken string
	// RateLimitPerMin caps webhook calls per source IP. Zero disables
	// rate limiting.
	RateLimitPerMin int
}

type Middleware struct {
	l       log.Logger
	cfg     Config
	limiter *sourceLimiter
}

func New(l log.Logger, cfg Config) Middleware {
	var limiter *sourceLimiter
	if cfg.RateLimitPerMin > 0 {
		limiter = newSourceLimiter(cfg.RateLimitPerMin)
	}
	return Middleware{l: l, cfg: cfg, limiter: limiter}
}
