// Package xlsx reads the budget spreadsheet from a local Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"loadash/internal/core"
	ports "loadash/internal/sheets"
)

type Reader struct {
	path  string
	sheet string
}

var (
	_ ports.TableReader = (*Reader)(nil)
	_ ports.Describer   = (*Reader)(nil)
)

// New returns a reader for path. An empty sheet selects the first sheet of
// the workbook.
func New(path, sheet string) (*Reader, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing DATA_FILE")
	}
	return &Reader{path: path, sheet: strings.TrimSpace(sheet)}, nil
}

// ReadTable streams the sheet rows. Cells are read raw, so numbers never
// carry the workbook's display formatting.
func (r *Reader) ReadTable(ctx context.Context) (core.RawTable, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return core.RawTable{}, fmt.Errorf("sheet %q not found in %s", sheet, r.path)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("read %s!%s: %w", r.path, sheet, err)
	}
	defer rows.Close()

	var t core.RawTable
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return core.RawTable{}, err
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return core.RawTable{}, fmt.Errorf("read %s!%s: %w", r.path, sheet, err)
		}
		if t.Header == nil {
			if blank(cols) {
				continue
			}
			t.Header = cols
			continue
		}
		t.Rows = append(t.Rows, cols)
	}
	if err := rows.Error(); err != nil {
		return core.RawTable{}, fmt.Errorf("read %s!%s: %w", r.path, sheet, err)
	}
	return t, nil
}

func (r *Reader) Describe() string {
	if r.sheet == "" {
		return "xlsx " + r.path
	}
	return fmt.Sprintf("xlsx %s (%s)", r.path, r.sheet)
}

// WriteTable saves t as a single-sheet workbook. Cells that parse as numbers
// are written as numbers; everything else, percent text included, as text.
func WriteTable(path, sheet string, t core.RawTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	write := func(rowIdx int, row []string) error {
		for i, v := range row {
			cell, err := excelize.CoordinatesToCellName(i+1, rowIdx)
			if err != nil {
				return err
			}
			var value interface{} = v
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				value = n
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(1, t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
