package board

import (
	"context"

	"speaktodo/internal/model"
	"speaktodo/pkg/monday"
)

// MemberSource fetches the raw member list of a board.
type MemberSource interface {
	Members(ctx context.Context, boardID string) ([]monday.Member, error)
}

// Directory resolves spoken names against the members of a board.
type Directory interface {
	Members(ctx context.Context, boardID string) ([]model.BoardMember, error)
	Resolve(ctx context.Context, boardID, spoken string) (model.BoardMember, bool, error)
	Invalidate(boardID string)
}
