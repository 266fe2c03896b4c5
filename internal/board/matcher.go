package board

import (
	"strings"

	"speaktodo/internal/model"
)

// Match resolves a spoken name against board members. Resolution goes from
// strongest to weakest signal: exact full name, then name prefix and
// substring; a spoken email address matches on the address as a last
// resort. A weak match only counts when it is unique; multiple candidates
// yield an AmbiguousMatchError unless cfg.ResolveAmbiguous picks the first.
func Match(spoken string, members []model.BoardMember, cfg MatcherConfig) (model.BoardMember, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(spoken))
	if needle == "" || needle == "unassigned" {
		return model.BoardMember{}, false, nil
	}

	for _, m := range members {
		if strings.ToLower(m.Name) == needle {
			return m, true, nil
		}
	}

	var candidates []model.BoardMember
	for _, m := range members {
		name := strings.ToLower(m.Name)
		if strings.HasPrefix(name, needle) || strings.Contains(name, needle) {
			candidates = append(candidates, m)
		}
	}

	// Email matching is reserved for spoken addresses. A bare token never
	// consults local parts, so "John" cannot silently pick john@acme.com
	// over another John on the board.
	if len(candidates) == 0 && strings.Contains(needle, "@") {
		spokenLocal, _, _ := strings.Cut(needle, "@")
		for _, m := range members {
			email := strings.ToLower(m.Email)
			if email == needle {
				return m, true, nil
			}
			if local, _, found := strings.Cut(email, "@"); found && local == spokenLocal {
				candidates = append(candidates, m)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return model.BoardMember{}, false, nil
	case 1:
		return candidates[0], true, nil
	}

	if cfg.ResolveAmbiguous {
		return candidates[0], true, nil
	}
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	return model.BoardMember{}, false, &AmbiguousMatchError{Spoken: spoken, Candidates: names}
}
