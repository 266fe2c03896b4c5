package session

import "errors"

var (
	// ErrInvalidState is returned when an operation is called on a session
	// that already left the editing state.
	ErrInvalidState = errors.New("session is no longer editable")
	// ErrTaskNotFound is returned when a task reference does not exist in
	// the session.
	ErrTaskNotFound = errors.New("task not found in session")
	// ErrSessionNotFound is returned when no session exists for a chat.
	ErrSessionNotFound = errors.New("no active session")
	// ErrEmptyTitle is returned when an edit would leave a task without a
	// title.
	ErrEmptyTitle = errors.New("task title must not be empty")
)
