package model

// CommitStatus is the terminal result of committing one task.
type CommitStatus string

const (
	CommitStatusCommitted CommitStatus = "committed"
	CommitStatusFailed    CommitStatus = "failed"
)

// CommitOutcome reports what happened to one task during a board commit.
// A commit of N tasks always yields exactly N outcomes, in task order.
type CommitOutcome struct {
	TaskID    string
	Title     string
	Status    CommitStatus
	RemoteRef string
	// ErrorDetail is a human-readable reason for a failed outcome.
	ErrorDetail string
}
