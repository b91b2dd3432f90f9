package reconcile

import (
	"strconv"
	"strings"
)

// CellKind identifies which variant a Cell holds.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single spreadsheet value: text, a number, or blank.
// The zero value is an empty cell.
type Cell struct {
	kind CellKind
	text string
	num  float64
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: CellText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: CellNumber, num: f} }

// Empty returns a blank cell.
func Empty() Cell { return Cell{} }

// Kind reports the variant held by c.
func (c Cell) Kind() CellKind { return c.kind }

// IsEmpty reports whether c is blank.
func (c Cell) IsEmpty() bool { return c.kind == CellEmpty }

// String renders the cell as text. Numbers use the shortest decimal form
// without exponent, so 42 renders as "42" and 1.5 as "1.5".
func (c Cell) String() string {
	switch c.kind {
	case CellText:
		return c.text
	case CellNumber:
		if c.num == 0 {
			return "0" // avoid "-0"
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Trimmed returns the cell's text with surrounding whitespace removed.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}
