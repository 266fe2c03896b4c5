package task

import "errors"

// Domain-specific errors for the task package.
var (
	ErrBoardNotConfigured = errors.New("no board configured for commit")
)
