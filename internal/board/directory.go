package board

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"speaktodo/internal/model"
	"speaktodo/pkg/log"
)

const cacheSize = 16

// MatcherConfig tunes name resolution.
type MatcherConfig struct {
	// ResolveAmbiguous picks the first candidate instead of reporting an
	// ambiguous match.
	ResolveAmbiguous bool
}

type directory struct {
	source  MemberSource
	cache   *expirable.LRU[string, []model.BoardMember]
	matcher MatcherConfig
	l       log.Logger
}

// NewDirectory builds a Directory that caches board members for ttl. A fetch
// failure is returned to the caller and leaves the cache untouched, so a
// later call retries.
func NewDirectory(source MemberSource, ttl time.Duration, matcher MatcherConfig, l log.Logger) Directory {
	return &directory{
		source:  source,
		cache:   expirable.NewLRU[string, []model.BoardMember](cacheSize, nil, ttl),
		matcher: matcher,
		l:       l,
	}
}

func (d *directory) Members(ctx context.Context, boardID string) ([]model.BoardMember, error) {
	if members, ok := d.cache.Get(boardID); ok {
		return members, nil
	}

	raw, err := d.source.Members(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("fetch members of board %s: %w", boardID, err)
	}

	members := make([]model.BoardMember, 0, len(raw))
	for _, m := range raw {
		members = append(members, model.BoardMember{
			RemoteID: m.ID,
			Name:     m.Name,
			Email:    m.Email,
		})
	}
	d.cache.Add(boardID, members)
	d.l.Debugf(ctx, "cached %d members for board %s", len(members), boardID)
	return members, nil
}

func (d *directory) Resolve(ctx context.Context, boardID, spoken string) (model.BoardMember, bool, error) {
	members, err := d.Members(ctx, boardID)
	if err != nil {
		return model.BoardMember{}, false, err
	}
	return Match(spoken, members, d.matcher)
}

func (d *directory) Invalidate(boardID string) {
	d.cache.Remove(boardID)
}
