package sheet

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/tutorly/gradeimport/internal/reconcile"
)

// parseXLSX reads the first worksheet of a workbook. Numeric cells become
// Number cells so identifiers like 20240017 keep their integer form.
func parseXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrEmpty)
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	t := newTable()
	for i, values := range rows {
		line := i + 1
		cells := make([]reconcile.Cell, len(values))
		for col, v := range values {
			cells[col] = xlsxCell(f, name, col+1, line, v)
		}
		t.add(line, cells)
	}

	if !t.header {
		return nil, fmt.Errorf("%w: no header row found", ErrEmpty)
	}
	return t.sheet, nil
}

func xlsxCell(f *excelize.File, sheet string, col, row int, v string) reconcile.Cell {
	if v == "" {
		return reconcile.Empty()
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return reconcile.Text(v)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return reconcile.Text(v)
	}
	// Plain numeric cells carry no type attribute.
	if typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return reconcile.Number(n)
		}
	}
	return reconcile.Text(v)
}
