package task

import (
	"context"

	"speaktodo/internal/model"
)

// UseCase defines the business logic interface for the task domain.
type UseCase interface {
	// Extract turns a voice note transcript into draft task records. A
	// non-empty transcript always yields at least one task, falling back
	// to keyword splitting when the language model is unavailable.
	Extract(ctx context.Context, sc model.Scope, input ExtractInput) (ExtractOutput, error)

	// Commit writes confirmed tasks to the board, grouped by project, and
	// reports a per-task outcome. One group failing does not stop the
	// others.
	Commit(ctx context.Context, sc model.Scope, input CommitInput) (CommitOutput, error)
}
