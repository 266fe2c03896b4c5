package session

import (
	"errors"
	"testing"
	"time"

	"speaktodo/internal/model"
	"speaktodo/pkg/log"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	defer r.Close()

	created := r.Create(model.Scope{ChatID: 10}, draftTasks(), false)

	got, err := r.Get(10)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Get returned different session")
	}

	if _, err := r.Get(99); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryCreateReplacesExisting(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	defer r.Close()

	old := r.Create(model.Scope{ChatID: 10}, draftTasks(), false)
	fresh := r.Create(model.Scope{ChatID: 10}, draftTasks(), false)

	if old.State() != StateAbandoned {
		t.Errorf("old session state = %s, want abandoned", old.State())
	}
	got, _ := r.Get(10)
	if got.ID != fresh.ID {
		t.Errorf("registry still holds old session")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	defer r.Close()

	r.Create(model.Scope{ChatID: 10}, nil, false)
	r.Remove(10)

	if _, err := r.Get(10); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	r := NewRegistry(10*time.Millisecond, log.NewNop())
	defer r.Close()

	s := r.Create(model.Scope{ChatID: 10}, draftTasks(), false)

	time.Sleep(30 * time.Millisecond)
	r.evictIdle()

	if _, err := r.Get(10); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("session not evicted: %v", err)
	}
	if s.State() != StateAbandoned {
		t.Errorf("evicted session state = %s, want abandoned", s.State())
	}
}

func TestRegistryKeepsActiveSessions(t *testing.T) {
	r := NewRegistry(time.Minute, log.NewNop())
	defer r.Close()

	r.Create(model.Scope{ChatID: 10}, draftTasks(), false)
	r.evictIdle()

	if _, err := r.Get(10); err != nil {
		t.Errorf("active session evicted: %v", err)
	}
}
