package session

import (
	"context"
	"sync"
	"time"

	"speaktodo/internal/model"
	"speaktodo/pkg/log"
)

const janitorInterval = time.Minute

// Registry tracks the active review session of each chat. A chat has at most
// one: starting a new session abandons the previous one. Idle sessions are
// abandoned after the TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	l        log.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a Registry and starts its cleanup goroutine.
func NewRegistry(ttl time.Duration, l log.Logger) *Registry {
	r := &Registry{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		l:        l,
		stop:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Create starts a new session for the scope's chat, replacing any existing
// one.
func (r *Registry) Create(scope model.Scope, tasks []model.TaskRecord, degraded bool) *Session {
	s := New(scope, tasks, degraded)

	r.mu.Lock()
	old := r.sessions[scope.ChatID]
	r.sessions[scope.ChatID] = s
	r.mu.Unlock()

	if old != nil {
		_ = old.Abandon()
	}
	return s
}

// Get returns the active session for a chat.
func (r *Registry) Get(chatID int64) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops a chat's session without changing its state. Callers finish
// the session first via Confirm or Abandon.
func (r *Registry) Remove(chatID int64) {
	r.mu.Lock()
	delete(r.sessions, chatID)
	r.mu.Unlock()
}

// Close stops the cleanup goroutine.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for chatID, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, chatID)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		if err := s.Abandon(); err == nil {
			r.l.Infof(context.Background(), "abandoned idle session %s", s.ID)
		}
	}
}
