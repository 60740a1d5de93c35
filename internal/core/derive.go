// Package core holds the budget line model and the load-time column derivation.
//
// This file turns a raw spreadsheet table into an immutable Dataset: it locates
// the required columns, parses numeric and percent-text cells and computes the
// investment share of each year's budget.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrParse         = errors.New("parse error")
	ErrMissingColumn = errors.New("missing required column")
)

type (
	// RawTable is a header row plus data rows, as read from any spreadsheet source.
	RawTable struct {
		Header []string
		Rows   [][]string
	}

	// ColumnMap names the spreadsheet header of every required field.
	ColumnMap struct {
		MacroGroup string
		SubGroup   string
		Agency     string
		Metrics    map[Metric]string
	}

	// ParseError reports a cell that is not numeric after normalization.
	ParseError struct {
		Row    int // 1-based data row, header excluded
		Column string
		Value  string
		Err    error
	}

	// MissingColumnError lists required headers absent from the table.
	MissingColumnError struct {
		Columns []string
	}
)

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q as a number: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *MissingColumnError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// DefaultColumns returns the headers used by the LOA 2025 x 2026 spreadsheet.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		MacroGroup: "Macro grupo",
		SubGroup:   "SubGrupo",
		Agency:     "ORGÃO",
		Metrics: map[Metric]string{
			Budget2025:         "ORÇAMENTO 25",
			Investment2025:     "INVESTIMENTO 25",
			Budget2026:         "ORÇAMENTO 26",
			Investment2026:     "INVESTIMENTO 26",
			BudgetDelta:        "ORÇAMENTO",
			InvestmentDelta:    "INVESTIMENTO",
			BudgetDeltaPct:     "%4",
			InvestmentDeltaPct: "%3",
		},
	}
}

// Header returns the configured header for a source metric.
func (c ColumnMap) Header(m Metric) string {
	return c.Metrics[m]
}

// Derive builds the Dataset from a raw table.
//
// Percent-text metrics are normalized with ParsePercent, the other source metrics
// with ParseNumber. Fully blank rows are skipped. The investment share columns are
// computed as 100 * investment / budget and hold no value when the budget is zero.
func Derive(t RawTable, cols ColumnMap) (*Dataset, error) {
	idx, err := locateColumns(t.Header, cols)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		values := make(map[Metric]float64, metricCount)
		for _, m := range SourceMetrics {
			raw := cell(row, idx.metrics[m])
			parse := ParseNumber
			if m.PercentText() {
				parse = ParsePercent
			}
			v, err := parse(raw)
			if err != nil {
				return nil, &ParseError{Row: i + 1, Column: cols.Header(m), Value: raw, Err: err}
			}
			values[m] = v
		}
		values[InvestmentPct2025] = InvestmentShare(values[Investment2025], values[Budget2025])
		values[InvestmentPct2026] = InvestmentShare(values[Investment2026], values[Budget2026])

		records = append(records, NewRecord(
			strings.TrimSpace(cell(row, idx.macro)),
			strings.TrimSpace(cell(row, idx.sub)),
			strings.TrimSpace(cell(row, idx.agency)),
			values,
		))
	}
	return NewDataset(records), nil
}

// InvestmentShare returns 100 * investment / budget, NaN when budget is zero.
func InvestmentShare(investment, budget float64) float64 {
	if budget == 0 {
		return math.NaN()
	}
	return 100 * investment / budget
}

// ParsePercent parses percent text such as "12,5%" into 12.5.
//
// It strips percent signs, turns comma decimal separators into periods and
// parses the rest as a float. An empty cell holds no value (NaN).
//
// Examples:
//
//	ParsePercent("12,5%") -> 12.5, nil
//	ParsePercent("-3%")   -> -3, nil
//	ParsePercent("0.25")  -> 0.25, nil
//	ParsePercent("n/d")   -> error
func ParsePercent(s string) (float64, error) {
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", ".")
	return ParseNumber(s)
}

// ParseNumber parses a raw numeric cell. An empty cell holds no value (NaN).
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrParse
	}
	return v, nil
}

type columnIndex struct {
	macro, sub, agency int
	metrics            map[Metric]int
}

func locateColumns(header []string, cols ColumnMap) (columnIndex, error) {
	idx := columnIndex{metrics: make(map[Metric]int, len(SourceMetrics))}
	var missing []string
	find := func(name string) int {
		i := indexOf(header, name)
		if i == -1 {
			missing = append(missing, name)
		}
		return i
	}
	idx.macro = find(cols.MacroGroup)
	idx.sub = find(cols.SubGroup)
	idx.agency = find(cols.Agency)
	for _, m := range SourceMetrics {
		name := cols.Header(m)
		if name == "" {
			missing = append(missing, string(m))
			continue
		}
		idx.metrics[m] = find(name)
	}
	if len(missing) > 0 {
		return columnIndex{}, &MissingColumnError{Columns: missing}
	}
	return idx, nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
