package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"speaktodo/pkg/response"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes caps how much of a webhook body is buffered to find the
// chat id. Telegram updates are far smaller than this.
const maxUpdateBytes = 1 << 20

// TelegramWebhook rejects webhook calls that do not carry the configured
// secret token and rate limits per chat. All Telegram traffic arrives from
// a handful of datacenter IPs, so one noisy chat must not starve the rest.
// Updates without a chat fall back to the source IP.
func (m Middleware) TelegramWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if m.cfg.SecretToken != "" {
			got := c.GetHeader(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(m.cfg.SecretToken)) != 1 {
				m.l.Warnf(ctx, "webhook: secret token mismatch from %s", extractIP(c.Request))
				response.Unauthorized(c)
				c.Abort()
				return
			}
		}

		if m.limiter != nil {
			if err := m.limiter.Allow(limiterKey(c.Request)); err != nil {
				m.l.Warnf(ctx, "webhook: %v", err)
				c.AbortWithStatus(http.StatusTooManyRequests)
				return
			}
		}

		c.Next()
	}
}

// limiterKey identifies the chat an update belongs to, restoring the body
// for the handler downstream.
func limiterKey(r *http.Request) string {
	if r.Body == nil {
		return "ip:" + extractIP(r)
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "ip:" + extractIP(r)
	}

	var update struct {
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
		CallbackQuery *struct {
			Message *struct {
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
			} `json:"message"`
		} `json:"callback_query"`
	}
	if json.Unmarshal(body, &update) == nil {
		switch {
		case update.Message != nil && update.Message.Chat.ID != 0:
			return fmt.Sprintf("chat:%d", update.Message.Chat.ID)
		case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat.ID != 0:
			return fmt.Sprintf("chat:%d", update.CallbackQuery.Message.Chat.ID)
		}
	}
	return "ip:" + extractIP(r)
}

// extractIP extracts the client IP, honoring proxy headers.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	return ip
}

// sourceLimiter keeps one token bucket per source with auto-cleanup.
type sourceLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newSourceLimiter(requestsPerMin int) *sourceLimiter {
	burst := requestsPerMin / 10
	if burst < 1 {
		burst = 1
	}
	return &sourceLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](1000, nil, 5*time.Minute),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		burst:    burst,
	}
}

func (sl *sourceLimiter) Allow(key string) error {
	limiter, ok := sl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(sl.rate, sl.burst)
		sl.limiters.Add(key, limiter)
	}
	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s", key)
	}
	return nil
}
