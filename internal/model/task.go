package model

import "time"

// TaskStatus is the lifecycle state of a task record. Transitions only move
// forward: Draft -> Confirmed -> Committed or Failed.
type TaskStatus string

const (
	TaskStatusDraft     TaskStatus = "draft"
	TaskStatusConfirmed TaskStatus = "confirmed"
	TaskStatusCommitted TaskStatus = "committed"
	TaskStatusFailed    TaskStatus = "failed"
)

// CanTransition reports whether moving from s to next is a forward step.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusDraft:
		return next == TaskStatusConfirmed
	case TaskStatusConfirmed:
		return next == TaskStatusCommitted || next == TaskStatusFailed
	default:
		return false
	}
}

// TaskRecord is a single actionable item extracted from a voice note.
type TaskRecord struct {
	ID      string
	Project string
	Title   string
	// Owner is the display name of the assignee, or "Unassigned".
	Owner string
	// OwnerID is the board member id backing Owner, empty when unassigned.
	OwnerID string
	// DueDate is nil when no due date was spoken or it could not be
	// resolved.
	DueDate *time.Time
	Status  TaskStatus
	// RemoteRef identifies the created board item once committed.
	RemoteRef string
}

// BoardMember is a person who can be assigned tasks on the board.
type BoardMember struct {
	RemoteID string
	Name     string
	Email    string
}
