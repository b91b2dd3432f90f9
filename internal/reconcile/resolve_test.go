package reconcile

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================================
// ResolveColumns Tests
// ============================================================================

func TestResolveColumns_ExactMatch(t *testing.T) {
	headers := []string{"Student ID", "First Name", "Last Name", "Class", "Term", "Effort", "Comment"}

	b, err := ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns failed: %v", err)
	}

	want := map[Field]string{
		FieldIdentifier: "Student ID",
		FieldFirstName:  "First Name",
		FieldLastName:   "Last Name",
		FieldClass:      "Class",
		FieldTerm:       "Term",
		FieldMarkEffort: "Effort",
		FieldComment:    "Comment",
	}
	for f, h := range want {
		if got, ok := b.Header(f); !ok || got != h {
			t.Errorf("field %s bound to %q (ok=%v), want %q", f, got, ok, h)
		}
	}
}

func TestResolveColumns_CaseAndWhitespace(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"upper case", "STUDENT ID"},
		{"padded", "  Student ID  "},
		{"inner whitespace", "student    id"},
		{"tab", "Student\tID"},
		{"underscore", "student_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ResolveColumns([]string{"Name", tt.header})
			if err != nil {
				t.Fatalf("ResolveColumns failed: %v", err)
			}
			// The literal header is preserved, not the normalized form.
			if got := b[FieldIdentifier]; got != tt.header {
				t.Errorf("identifier bound to %q, want %q", got, tt.header)
			}
		})
	}
}

func TestResolveColumns_SubstringFallback(t *testing.T) {
	headers := []string{"Pupil", "Student ID Number (school)", "Pupil Surname"}

	b, err := ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns failed: %v", err)
	}
	if got := b[FieldIdentifier]; got != "Student ID Number (school)" {
		t.Errorf("identifier = %q, want substring match", got)
	}
	if got := b[FieldLastName]; got != "Pupil Surname" {
		t.Errorf("last name = %q, want %q", got, "Pupil Surname")
	}
}

func TestResolveColumns_ExactBeatsEarlierSubstring(t *testing.T) {
	// "Class Teacher" contains "class" and comes first, but "Subject" is an exact synonym.
	headers := []string{"Student ID", "Class Teacher", "Subject"}

	b, err := ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns failed: %v", err)
	}
	if got := b[FieldClass]; got != "Subject" {
		t.Errorf("class = %q, want %q", got, "Subject")
	}
}

func TestResolveColumns_SubstringUsesFileOrder(t *testing.T) {
	headers := []string{"Student ID", "Spring Term Label", "Term Code"}

	b, err := ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns failed: %v", err)
	}
	if got := b[FieldTerm]; got != "Spring Term Label" {
		t.Errorf("term = %q, want first containing header", got)
	}
}

func TestResolveColumns_MissingIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
	}{
		{"no headers", nil},
		{"blank headers", []string{"", "  "}},
		{"names only", []string{"First Name", "Last Name", "Effort"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ResolveColumns(tt.headers)
			if err == nil {
				t.Fatalf("expected error, got binding %v", b)
			}
			if !errors.Is(err, ErrMissingColumn) {
				t.Errorf("expected ErrMissingColumn, got %v", err)
			}
			if !strings.Contains(err.Error(), "Student ID") {
				t.Errorf("error should name the missing field: %v", err)
			}
		})
	}
}

func TestResolveColumns_OptionalFieldsUnbound(t *testing.T) {
	b, err := ResolveColumns([]string{"Student Code"})
	if err != nil {
		t.Fatalf("ResolveColumns failed: %v", err)
	}

	unbound := b.Unbound()
	if len(unbound) != len(FieldSpecs)-1 {
		t.Fatalf("expected %d unbound fields, got %v", len(FieldSpecs)-1, unbound)
	}
	if unbound[0] != FieldFirstName {
		t.Errorf("unbound fields should follow resolution order, got %v", unbound)
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Student ID", "student id"},
		{"  First   Name ", "first name"},
		{"", ""},
		{"\tTERM\n", "term"},
	}

	for _, tt := range tests {
		if got := normalizeHeader(tt.in); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
