package sheet

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/tutorly/gradeimport/internal/reconcile"
)

// ============================================================================
// CSV Tests
// ============================================================================

func TestParse_CSV(t *testing.T) {
	data := []byte("Student ID,First Name,Last Name\nS1,Ann,Lee\n\nS2,Bob,Ray\n")

	s, err := Parse("grades.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Format != FormatCSV || s.Encoding != "utf-8" {
		t.Errorf("format=%s encoding=%s", s.Format, s.Encoding)
	}
	if len(s.Headers) != 3 || s.Headers[0] != "Student ID" {
		t.Errorf("headers = %v", s.Headers)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(s.Rows))
	}
	if s.Rows[0].Line != 2 || s.Rows[1].Line != 4 {
		t.Errorf("lines = %d, %d; want 2, 4", s.Rows[0].Line, s.Rows[1].Line)
	}
	if got := s.Rows[1].Cells["First Name"].String(); got != "Bob" {
		t.Errorf("First Name = %q", got)
	}
}

func TestParse_CSVRaggedRows(t *testing.T) {
	data := []byte("Student ID,Effort,Comment\nS1,A\nS2,B,Good,extra\n")

	s, err := Parse("grades.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !s.Rows[0].Cells["Comment"].IsEmpty() {
		t.Errorf("short row should be padded with empty cells")
	}
	if len(s.Rows[1].Cells) != 3 {
		t.Errorf("long row should be truncated, got %v", s.Rows[1].Cells)
	}
	if len(s.Warnings) != 1 || s.Warnings[0].Line != 3 {
		t.Errorf("warnings = %+v", s.Warnings)
	}
}

func TestParse_TSV(t *testing.T) {
	s, err := Parse("grades.tsv", []byte("Student ID\tTerm\nS1\tAutumn\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := s.Rows[0].Cells["Term"].String(); got != "Autumn" {
		t.Errorf("Term = %q", got)
	}
}

func TestParse_CSVLeadingBlankRows(t *testing.T) {
	// Spreadsheet exports write an empty first row as bare delimiters.
	data := []byte(",,\n,,\nStudent ID,First Name,Last Name\nS1,Ann,Lee\n")

	s, err := Parse("grades.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(s.Headers) != 3 || s.Headers[0] != "Student ID" {
		t.Fatalf("headers = %v, want the first non-blank row", s.Headers)
	}
	if len(s.Rows) != 1 || s.Rows[0].Line != 4 {
		t.Fatalf("rows = %+v, want one row on line 4", s.Rows)
	}
	if _, err := reconcile.ResolveColumns(s.Headers); err != nil {
		t.Errorf("ResolveColumns() error = %v", err)
	}
}

func TestParse_CSVOnlyBlankRows(t *testing.T) {
	_, err := Parse("grades.csv", []byte(",,\n,,\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse() error = %v, want ErrEmpty", err)
	}
}

func TestParse_DuplicateAndBlankHeaders(t *testing.T) {
	s, err := Parse("grades.csv", []byte("Grade,Grade,,Grade\n1,2,3,4\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"Grade", "Grade_1", "__EMPTY", "Grade_2"}
	for i, h := range want {
		if s.Headers[i] != h {
			t.Errorf("header %d = %q, want %q", i, s.Headers[i], h)
		}
	}
	if got := s.Rows[0].Cells["Grade_2"].String(); got != "4" {
		t.Errorf("Grade_2 = %q", got)
	}
}

// ============================================================================
// Encoding Tests
// ============================================================================

func TestParse_Encodings(t *testing.T) {
	text := "Student ID,Last Name\nS1,Müller\n"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	cp1252, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		data     []byte
		encoding string
	}{
		{"utf-8", []byte(text), "utf-8"},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...), "utf-8-bom"},
		{"utf-16le", []byte(utf16le), "utf-16le"},
		{"utf-16be", []byte(utf16be), "utf-16be"},
		{"windows-1252", []byte(cp1252), "windows-1252"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("grades.csv", tt.data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if s.Encoding != tt.encoding {
				t.Errorf("encoding = %q, want %q", s.Encoding, tt.encoding)
			}
			if s.Headers[0] != "Student ID" {
				t.Errorf("header = %q, BOM not stripped?", s.Headers[0])
			}
			if got := s.Rows[0].Cells["Last Name"].String(); got != "Müller" {
				t.Errorf("Last Name = %q, want %q", got, "Müller")
			}
		})
	}
}

// ============================================================================
// Error Tests
// ============================================================================

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"zero bytes", "a.csv", nil, ErrEmpty},
		{"whitespace only", "a.csv", []byte(" \n\n"), ErrEmpty},
		{"header only", "a.csv", []byte("Student ID,Name\n"), ErrEmpty},
		{"blank data rows", "a.csv", []byte("Student ID,Name\n,\n , \n"), ErrEmpty},
		{"legacy xls by name", "a.xls", []byte("anything"), ErrUnreadable},
		{"legacy xls by magic", "upload", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0}, ErrUnreadable},
		{"corrupt xlsx", "a.xlsx", []byte("PK\x03\x04 not really a zip"), ErrUnreadable},
		{"binary", "a.csv", []byte("Student ID\x00\x01\x02\nS1"), ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.file, tt.data)
			if err == nil {
				t.Fatalf("expected error, got sheet %+v", s)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"grades.XLSX", nil, FormatXLSX},
		{"grades.csv", nil, FormatCSV},
		{"grades.tsv", nil, FormatTSV},
		{"upload", []byte("PK\x03\x04rest"), FormatXLSX},
		{"upload", []byte("a,b"), FormatCSV},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.name, tt.data)
		if err != nil {
			t.Errorf("DetectFormat(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

// ============================================================================
// XLSX Tests
// ============================================================================

func buildWorkbook(t *testing.T, rows map[string]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for axis, v := range rows {
		if err := f.SetCellValue(sheet, axis, v); err != nil {
			t.Fatalf("SetCellValue(%s): %v", axis, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestParse_XLSX(t *testing.T) {
	data := buildWorkbook(t, map[string]any{
		"A1": "Student ID", "B1": "First Name", "C1": "Effort",
		"A2": 20240017, "B2": "Ann", "C2": 3.5,
		"A4": "S2", "B4": "Bob",
	})

	s, err := Parse("grades.xlsx", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Format != FormatXLSX {
		t.Errorf("format = %s", s.Format)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(s.Rows))
	}

	first := s.Rows[0]
	if first.Line != 2 {
		t.Errorf("first line = %d", first.Line)
	}
	id := first.Cells["Student ID"]
	if id.Kind() != reconcile.CellNumber || id.String() != "20240017" {
		t.Errorf("identifier cell = %v %q, want number 20240017", id.Kind(), id.String())
	}
	if got := first.Cells["Effort"].String(); got != "3.5" {
		t.Errorf("Effort = %q", got)
	}

	second := s.Rows[1]
	if second.Line != 4 {
		t.Errorf("second line = %d, want 4", second.Line)
	}
	if second.Cells["Student ID"].Kind() != reconcile.CellText {
		t.Errorf("S2 should be a text cell")
	}
	if !second.Cells["Effort"].IsEmpty() {
		t.Errorf("missing cell should be empty")
	}
}

func TestParse_XLSXHeaderOnly(t *testing.T) {
	data := buildWorkbook(t, map[string]any{"A1": "Student ID"})

	if _, err := Parse("grades.xlsx", data); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}
