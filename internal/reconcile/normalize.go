package reconcile

import "strings"

// RawRow is one data row of an uploaded sheet, keyed by literal header.
type RawRow struct {
	Line  int // Physical row number in the file (header is row 1); 0 if unknown
	Cells map[string]Cell
}

// Marks holds the free-text grade columns of a row.
type Marks struct {
	Effort     string `json:"effort"`
	Attainment string `json:"attainment"`
	Homework   string `json:"homework"`
	Behaviour  string `json:"behaviour"`
}

// Get returns the mark for a mark field, or "" for any other field.
func (m Marks) Get(f Field) string {
	switch f {
	case FieldMarkEffort:
		return m.Effort
	case FieldMarkAttainment:
		return m.Attainment
	case FieldMarkHomework:
		return m.Homework
	case FieldMarkBehaviour:
		return m.Behaviour
	}
	return ""
}

// Row is a normalized sheet row. All values are trimmed text.
type Row struct {
	Line       int    `json:"line"`
	Identifier string `json:"identifier"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Class      string `json:"class"`
	Term       string `json:"term"`
	Marks      Marks  `json:"marks"`
	Comment    string `json:"comment"`
}

// SubmittedName joins the submitted first and last name.
func (r Row) SubmittedName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Normalize converts raw rows into normalized rows using the binding.
//
// Rows whose identifier cell is blank or "0" after trimming are dropped.
// Every other row produces exactly one Row, in input order.
func Normalize(raws []RawRow, b Binding) []Row {
	rows := make([]Row, 0, len(raws))
	for i, raw := range raws {
		id := cellText(raw, b, FieldIdentifier)
		if id == "" || id == "0" {
			continue
		}

		line := raw.Line
		if line == 0 {
			line = i + 2
		}

		rows = append(rows, Row{
			Line:       line,
			Identifier: id,
			FirstName:  cellText(raw, b, FieldFirstName),
			LastName:   cellText(raw, b, FieldLastName),
			Class:      cellText(raw, b, FieldClass),
			Term:       cellText(raw, b, FieldTerm),
			Marks: Marks{
				Effort:     cellText(raw, b, FieldMarkEffort),
				Attainment: cellText(raw, b, FieldMarkAttainment),
				Homework:   cellText(raw, b, FieldMarkHomework),
				Behaviour:  cellText(raw, b, FieldMarkBehaviour),
			},
			Comment: cellText(raw, b, FieldComment),
		})
	}
	return rows
}

// cellText reads the trimmed text under the header bound to f.
// Unbound fields and missing cells yield "".
func cellText(raw RawRow, b Binding, f Field) string {
	h, ok := b.Header(f)
	if !ok {
		return ""
	}
	return raw.Cells[h].Trimmed()
}
