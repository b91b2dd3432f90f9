package reconcile

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxSuggestionDistance is the largest edit distance between a submitted
// identifier and a roster identifier that still yields a suggestion.
const MaxSuggestionDistance = 1

// suggest finds a likely roster entry for an unmatched row.
//
// Identifiers within MaxSuggestionDistance edits are preferred (closest first,
// roster order on ties). Failing that, an entry whose full name equals the
// submitted name case-insensitively is returned. Returns nil if neither applies.
func suggest(row Row, roster []RosterEntry) *RosterEntry {
	best := -1
	bestDist := MaxSuggestionDistance + 1
	for i, e := range roster {
		if e.Code == "" {
			continue
		}
		d := levenshtein.ComputeDistance(strings.ToUpper(row.Identifier), strings.ToUpper(e.Code))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		e := roster[best]
		return &e
	}

	if row.FirstName == "" || row.LastName == "" {
		return nil
	}
	for _, e := range roster {
		if strings.EqualFold(e.FullName(), row.SubmittedName()) {
			return &e
		}
	}
	return nil
}
