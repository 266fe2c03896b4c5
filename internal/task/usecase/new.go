package usecase

import (
	"context"

	"speaktodo/internal/board"
	"speaktodo/pkg/datemath"
	"speaktodo/pkg/gcalendar"
	"speaktodo/pkg/llmprovider"
	pkgLog "speaktodo/pkg/log"
	"speaktodo/pkg/monday"
)

// BoardWriter is the slice of the board API the commit engine needs.
type BoardWriter interface {
	SubitemsBoardID(ctx context.Context, boardID string) (string, error)
	Columns(ctx context.Context, boardID string) ([]monday.Column, error)
	FindOrCreateParent(ctx context.Context, boardID, name string) (monday.Item, error)
	CreateSubitem(ctx context.Context, subitemsBoardID, parentID, name string, columnValues map[string]any) (monday.Item, error)
}

// ColumnMap names the subitem board columns the commit engine writes to.
// Ids left empty are discovered from the board schema by column type;
// columns absent there too are skipped.
type ColumnMap struct {
	Owner  string
	Due    string
	Status string
	// OwnerText mirrors the spoken owner name into a text column, which
	// keeps the name visible when it did not resolve to a board member.
	OwnerText string
}

// Config carries board and locale settings for the task use case.
type Config struct {
	BoardID string
	// Timezone anchors relative date resolution, e.g. "Europe/Madrid".
	Timezone string
	Columns  ColumnMap
	// StatusLabel is the status column label for newly created tasks.
	StatusLabel string
	// CalendarID receives mirrored due date events when a calendar client
	// is configured.
	CalendarID string
}

type implUseCase struct {
	l         pkgLog.Logger
	llm       *llmprovider.Manager
	boards    BoardWriter
	directory board.Directory
	dates     *datemath.Parser
	calendar  *gcalendar.Client
	cfg       Config
}

// New creates a new task UseCase instance. The calendar client may be nil.
func New(
	l pkgLog.Logger,
	llm *llmprovider.Manager,
	boards BoardWriter,
	directory board.Directory,
	dates *datemath.Parser,
	calendar *gcalendar.Client,
	cfg Config,
) *implUseCase {
	return &implUseCase{
		l:         l,
		llm:       llm,
		boards:    boards,
		directory: directory,
		dates:     dates,
		calendar:  calendar,
		cfg:       cfg,
	}
}
