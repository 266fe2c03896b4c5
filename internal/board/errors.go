package board

import (
	"fmt"
	"strings"
)

// AmbiguousMatchError is returned when a spoken name matches more than one
// board member and no tie-break policy is enabled.
type AmbiguousMatchError struct {
	Spoken     string
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("name %q matches multiple members: %s", e.Spoken, strings.Join(e.Candidates, ", "))
}
