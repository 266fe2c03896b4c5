package task

import "speaktodo/internal/model"

// ExtractInput is the input for task extraction.
type ExtractInput struct {
	// Transcript is the speech-to-text output of a voice note.
	Transcript string
}

// ExtractOutput is the result of task extraction.
type ExtractOutput struct {
	Tasks []model.TaskRecord
	// Degraded is true when the language model was unavailable and the
	// tasks came from the keyword fallback instead.
	Degraded bool
	// DegradedReason explains why the fallback ran.
	DegradedReason string
}

// CommitInput is the input for committing confirmed tasks to the board.
type CommitInput struct {
	Tasks []model.TaskRecord
}

// CommitOutput reports the result of a board commit. Outcomes has exactly
// one entry per input task, in input order.
type CommitOutput struct {
	Outcomes  []model.CommitOutcome
	Committed int
	Failed    int
}
