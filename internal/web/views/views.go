// Package views renders the HTMX fragments of the import screen.
//
// Components are written in *.templ files; run `templ generate` after
// editing them and commit the generated *_templ.go files alongside.
package views

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tutorly/gradeimport/internal/core"
	"github.com/tutorly/gradeimport/internal/reconcile"
)

const rollbackConfirm = "Remove every grade saved by this batch?"

func importID(id uuid.UUID) string {
	return "import-" + id.String()
}

func importTarget(id uuid.UUID) string {
	return "#" + importID(id)
}

func commitPath(id uuid.UUID) string {
	return "/api/imports/" + id.String() + "/commit"
}

func cancelPath(id uuid.UUID) string {
	return "/api/imports/" + id.String() + "/cancel"
}

func rollbackPath(id uuid.UUID) string {
	return "/api/batches/" + id.String() + "/rollback"
}

type summaryItem struct {
	Label string
	Count int
}

func summaryItems(s core.Summary) []summaryItem {
	return []summaryItem{
		{"Rows read", s.TotalRows},
		{"Skipped (no student ID)", s.DroppedRows},
		{"Matched", s.Matched},
		{"Name differs", s.NameMismatch},
		{"Not on roster", s.Unmatched},
		{"Ready to commit", s.Qualifying},
	}
}

func unboundLabels(fields []reconcile.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Label()
	}
	return strings.Join(names, ", ")
}

// rosterCell shows the matched roster name, or the suggestion for an
// unmatched row.
func rosterCell(mr reconcile.MatchedRow) string {
	switch {
	case mr.Entry != nil:
		return mr.Entry.FullName()
	case mr.Suggestion != nil:
		return fmt.Sprintf("Did you mean %s (%s)?", mr.Suggestion.FullName(), mr.Suggestion.Code)
	}
	return ""
}

// markSummary lists the non-empty marks as "Effort: A, Homework: B".
func markSummary(m reconcile.Marks) string {
	var parts []string
	for _, f := range reconcile.MarkFields {
		if v := m.Get(f); v != "" {
			parts = append(parts, f.Label()+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}

func outcomeLabel(o reconcile.Outcome) string {
	switch o {
	case reconcile.MatchedClean:
		return "Matched"
	case reconcile.MatchedNameMismatch:
		return "Name differs"
	default:
		return "Not on roster"
	}
}

func savedAt(b core.Batch) string {
	return b.CreatedAt.Format("2006-01-02 15:04")
}
