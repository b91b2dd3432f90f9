// Package sheet turns an uploaded grade sheet into ordered header→cell rows.
//
// CSV (any of UTF-8, UTF-8 with BOM, UTF-16 with BOM, or Windows-1252) and
// XLSX workbooks are accepted. The first non-blank row holds headers; every
// later non-blank row becomes a [reconcile.RawRow] carrying its physical row
// number.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tutorly/gradeimport/internal/reconcile"
)

var (
	// ErrUnreadable is returned when the file cannot be read as tabular data.
	ErrUnreadable = errors.New("unreadable file")
	// ErrEmpty is returned when the file has no header row or no data rows.
	ErrEmpty = errors.New("empty file")
)

// Format is the on-disk layout of an uploaded sheet.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Warning is a non-fatal problem found while reading one row.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Sheet is a parsed upload.
type Sheet struct {
	Format   Format
	Encoding string // Source text encoding; "" for XLSX
	Headers  []string
	Rows     []reconcile.RawRow
	Warnings []Warning
}

// DetectFormat picks a format from the file name, falling back to content sniffing.
func DetectFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx or .csv", ErrUnreadable)
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return "", fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx or .csv", ErrUnreadable)
	}
	return FormatCSV, nil
}

// Parse reads an uploaded file. The name is used only to choose the format.
func Parse(name string, data []byte) (*Sheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: no header row found", ErrEmpty)
	}

	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	var s *Sheet
	switch format {
	case FormatXLSX:
		s, err = parseXLSX(data)
	case FormatTSV:
		s, err = parseDelimited(data, '\t')
	default:
		s, err = parseDelimited(data, ',')
	}
	if err != nil {
		return nil, err
	}
	s.Format = format

	if len(s.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows below the header", ErrEmpty)
	}
	return s, nil
}

// table accumulates rows from any reader into a Sheet.
type table struct {
	sheet  *Sheet
	width  int
	header bool
}

func newTable() *table {
	return &table{sheet: &Sheet{}}
}

// add appends one physical row. The first non-blank row is taken as the
// header; entirely blank rows are skipped but still advance the line count.
func (t *table) add(line int, cells []reconcile.Cell) {
	if blank(cells) {
		return
	}

	if !t.header {
		raw := make([]string, len(cells))
		for i, c := range cells {
			raw[i] = c.String()
		}
		t.sheet.Headers = uniqueHeaders(raw)
		t.width = len(t.sheet.Headers)
		t.header = true
		return
	}

	if len(cells) > t.width {
		t.sheet.Warnings = append(t.sheet.Warnings, Warning{
			Line:    line,
			Message: fmt.Sprintf("row has %d columns, header has %d; extra values ignored", len(cells), t.width),
		})
		cells = cells[:t.width]
	}

	row := reconcile.RawRow{Line: line, Cells: make(map[string]reconcile.Cell, t.width)}
	for i, h := range t.sheet.Headers {
		if i < len(cells) {
			row.Cells[h] = cells[i]
		} else {
			row.Cells[h] = reconcile.Empty()
		}
	}
	t.sheet.Rows = append(t.sheet.Rows, row)
}

func blank(cells []reconcile.Cell) bool {
	for _, c := range cells {
		if c.Trimmed() != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders names blank headers "__EMPTY" and suffixes repeats with _1, _2...
// so every column keeps its own key. Header text is otherwise kept verbatim.
func uniqueHeaders(raw []string) []string {
	taken := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = "__EMPTY"
		}
		name := h
		for taken[name] {
			next[h]++
			name = fmt.Sprintf("%s_%d", h, next[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
