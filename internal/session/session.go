package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"speaktodo/internal/model"
)

// State is the lifecycle state of a review session.
type State string

const (
	StateEditing   State = "editing"
	StateConfirmed State = "confirmed"
	StateAbandoned State = "abandoned"
)

// Field names a task field a user can edit during review.
type Field string

const (
	FieldProject Field = "project"
	FieldTitle   Field = "title"
	FieldOwner   Field = "owner"
	FieldDueDate Field = "due_date"
)

// Pending is an edit the user started with a button press and will finish
// with their next text message.
type Pending struct {
	TaskID  string
	Field   Field
	AddTask bool
}

// Session holds the draft tasks of one voice note while the user reviews
// them. All methods are safe for concurrent use. Once Confirm or Abandon
// succeeds every mutating call returns ErrInvalidState.
type Session struct {
	ID    string
	Scope model.Scope
	// ReviewMessageID is the chat message carrying the review keyboard,
	// edited in place as the user works.
	ReviewMessageID int64
	// Degraded marks that the tasks came from the fallback extractor.
	Degraded bool

	mu           sync.Mutex
	state        State
	tasks        []model.TaskRecord
	pending      *Pending
	lastActivity time.Time
}

// New creates an editing session over the extracted draft tasks.
func New(scope model.Scope, tasks []model.TaskRecord, degraded bool) *Session {
	copied := make([]model.TaskRecord, len(tasks))
	copy(copied, tasks)
	return &Session{
		ID:           uuid.NewString(),
		Scope:        scope,
		Degraded:     degraded,
		state:        StateEditing,
		tasks:        copied,
		lastActivity: time.Now(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tasks returns a snapshot of the session's tasks in order.
func (s *Session) Tasks() []model.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]model.TaskRecord, len(s.tasks))
	copy(snapshot, s.tasks)
	return snapshot
}

// Task returns the task with the given id.
func (s *Session) Task(taskID string) (model.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return model.TaskRecord{}, ErrTaskNotFound
}

// EditProject changes a task's project.
func (s *Session) EditProject(taskID, project string) error {
	return s.edit(taskID, func(t *model.TaskRecord) { t.Project = project })
}

// EditTitle changes a task's title. Titles must stay non-empty.
func (s *Session) EditTitle(taskID, title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return s.edit(taskID, func(t *model.TaskRecord) { t.Title = title })
}

// EditOwner assigns a task to a board member. A zero member unassigns.
func (s *Session) EditOwner(taskID string, owner model.BoardMember) error {
	return s.edit(taskID, func(t *model.TaskRecord) {
		if owner.RemoteID == "" {
			t.Owner = "Unassigned"
			t.OwnerID = ""
			return
		}
		t.Owner = owner.Name
		t.OwnerID = owner.RemoteID
	})
}

// EditDueDate sets or clears a task's due date.
func (s *Session) EditDueDate(taskID string, due *time.Time) error {
	return s.edit(taskID, func(t *model.TaskRecord) { t.DueDate = due })
}

func (s *Session) edit(taskID string, apply func(*model.TaskRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrInvalidState
	}
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			apply(&s.tasks[i])
			s.lastActivity = time.Now()
			return nil
		}
	}
	return ErrTaskNotFound
}

// AddTask appends a new draft task and returns its id. The task must carry
// a non-empty title.
func (s *Session) AddTask(task model.TaskRecord) (string, error) {
	if strings.TrimSpace(task.Title) == "" {
		return "", ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return "", ErrInvalidState
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Owner == "" {
		task.Owner = "Unassigned"
	}
	task.Status = model.TaskStatusDraft
	s.tasks = append(s.tasks, task)
	s.lastActivity = time.Now()
	return task.ID, nil
}

// RemoveTask deletes a task from the session.
func (s *Session) RemoveTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrInvalidState
	}
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.lastActivity = time.Now()
			return nil
		}
	}
	return ErrTaskNotFound
}

// Confirm finalizes the session and returns the confirmed tasks in order.
// Confirming an empty session is allowed and yields an empty slice.
func (s *Session) Confirm() ([]model.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return nil, ErrInvalidState
	}
	s.state = StateConfirmed
	s.pending = nil
	confirmed := make([]model.TaskRecord, len(s.tasks))
	for i, t := range s.tasks {
		// Only drafts move forward; a record that already advanced past
		// review keeps its status.
		if t.Status.CanTransition(model.TaskStatusConfirmed) {
			t.Status = model.TaskStatusConfirmed
		}
		confirmed[i] = t
	}
	s.tasks = confirmed
	return confirmed, nil
}

// Abandon discards the session.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrInvalidState
	}
	s.state = StateAbandoned
	s.pending = nil
	return nil
}

// SetPending records an edit awaiting the user's next text message.
func (s *Session) SetPending(p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrInvalidState
	}
	s.pending = &p
	s.lastActivity = time.Now()
	return nil
}

// TakePending returns and clears the pending edit, if any.
func (s *Session) TakePending() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Pending{}, false
	}
	p := *s.pending
	s.pending = nil
	return p, true
}

// ClearPending drops a pending edit without consuming it.
func (s *Session) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}
