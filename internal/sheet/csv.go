package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/tutorly/gradeimport/internal/reconcile"
)

// parseDelimited reads CSV or TSV text. Rows may have any number of fields;
// short rows are padded with empty cells.
func parseDelimited(data []byte, comma rune) (*Sheet, error) {
	decoded, enc, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(decoded, 0) >= 0 {
		return nil, fmt.Errorf("%w: file contains binary data", ErrUnreadable)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	t := newTable()
	t.sheet.Encoding = enc
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}

		line, _ := reader.FieldPos(0)
		cells := make([]reconcile.Cell, len(record))
		for i, v := range record {
			if v == "" {
				cells[i] = reconcile.Empty()
			} else {
				cells[i] = reconcile.Text(v)
			}
		}
		t.add(line, cells)
	}

	if !t.header {
		return nil, fmt.Errorf("%w: no header row found", ErrEmpty)
	}
	return t.sheet, nil
}
