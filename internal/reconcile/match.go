package reconcile

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RosterEntry is an active student as fetched from the student store.
type RosterEntry struct {
	ID        uuid.UUID `json:"id"`   // Internal identity
	Code      string    `json:"code"` // School-assigned identifier; "" if absent
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// FullName joins the roster first and last name.
func (e RosterEntry) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
}

// Outcome classifies a normalized row against the roster.
type Outcome int

const (
	Unmatched Outcome = iota
	MatchedClean
	MatchedNameMismatch
)

func (o Outcome) String() string {
	switch o {
	case MatchedClean:
		return "matched"
	case MatchedNameMismatch:
		return "name_mismatch"
	default:
		return "unmatched"
	}
}

// MarshalText renders the outcome as its string form in JSON.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses the string form written by MarshalText.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "matched":
		*o = MatchedClean
	case "name_mismatch":
		*o = MatchedNameMismatch
	case "unmatched":
		*o = Unmatched
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Matched reports whether the row found a roster entry.
func (o Outcome) Matched() bool {
	return o == MatchedClean || o == MatchedNameMismatch
}

// MatchedRow is a row with its outcome and, when matched, the roster entry.
type MatchedRow struct {
	Row        Row          `json:"row"`
	Outcome    Outcome      `json:"outcome"`
	Entry      *RosterEntry `json:"entry,omitempty"`
	Suggestion *RosterEntry `json:"suggestion,omitempty"` // Unmatched rows only
}

// Result is the output of Match.
type Result struct {
	Rows   []MatchedRow `json:"rows"`
	Issues []string     `json:"issues"`
}

// Qualifying returns the rows eligible for commit: every row with a roster entry.
func (r Result) Qualifying() []MatchedRow {
	var out []MatchedRow
	for _, mr := range r.Rows {
		if mr.Entry != nil {
			out = append(out, mr)
		}
	}
	return out
}

// Count returns the number of rows with the given outcome.
func (r Result) Count(o Outcome) int {
	n := 0
	for _, mr := range r.Rows {
		if mr.Outcome == o {
			n++
		}
	}
	return n
}

// Match classifies each row against the roster.
//
// Rows match on exact identifier equality. When the roster holds duplicate
// identifiers the first entry wins; entries without an identifier never match.
// Names are compared only when both submitted names are non-empty.
// Issues are returned in row order.
func Match(rows []Row, roster []RosterEntry) Result {
	byCode := make(map[string]int, len(roster))
	for i, e := range roster {
		if e.Code == "" {
			continue
		}
		if _, dup := byCode[e.Code]; !dup {
			byCode[e.Code] = i
		}
	}

	res := Result{
		Rows:   make([]MatchedRow, 0, len(rows)),
		Issues: []string{},
	}

	for _, row := range rows {
		idx, ok := byCode[row.Identifier]
		if !ok {
			res.Rows = append(res.Rows, MatchedRow{
				Row:        row,
				Outcome:    Unmatched,
				Suggestion: suggest(row, roster),
			})
			res.Issues = append(res.Issues, fmt.Sprintf(
				"Row %d: student ID %q (%s) is not on the roster",
				row.Line, row.Identifier, displayName(row.SubmittedName())))
			continue
		}

		entry := roster[idx]
		outcome := MatchedClean
		if row.FirstName != "" && row.LastName != "" && !namesAgree(row, entry) {
			outcome = MatchedNameMismatch
			res.Issues = append(res.Issues, fmt.Sprintf(
				"Row %d: student ID %q was submitted as %q but the roster has %q",
				row.Line, row.Identifier, row.SubmittedName(), entry.FullName()))
		}

		res.Rows = append(res.Rows, MatchedRow{
			Row:     row,
			Outcome: outcome,
			Entry:   &entry,
		})
	}
	return res
}

// namesAgree compares first and last names case-insensitively after trimming.
func namesAgree(row Row, e RosterEntry) bool {
	return strings.EqualFold(strings.TrimSpace(row.FirstName), strings.TrimSpace(e.FirstName)) &&
		strings.EqualFold(strings.TrimSpace(row.LastName), strings.TrimSpace(e.LastName))
}

func displayName(name string) string {
	if name == "" {
		return "no name given"
	}
	return name
}
