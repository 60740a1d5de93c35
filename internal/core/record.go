package core

import (
	"iter"
	"math"
)

// Metric identifies a numeric field of a budget line.
type Metric string

const (
	Budget2025         Metric = "budget2025"
	Investment2025     Metric = "investment2025"
	InvestmentPct2025  Metric = "investmentPct2025"
	Budget2026         Metric = "budget2026"
	Investment2026     Metric = "investment2026"
	InvestmentPct2026  Metric = "investmentPct2026"
	BudgetDelta        Metric = "budgetDelta"
	InvestmentDelta    Metric = "investmentDelta"
	BudgetDeltaPct     Metric = "budgetDeltaPct"
	InvestmentDeltaPct Metric = "investmentDeltaPct"
)

// Metrics lists every known metric in the order the dashboard offers them.
var Metrics = []Metric{
	Budget2025,
	Investment2025,
	InvestmentPct2025,
	Budget2026,
	Investment2026,
	InvestmentPct2026,
	BudgetDelta,
	InvestmentDelta,
	BudgetDeltaPct,
	InvestmentDeltaPct,
}

// SourceMetrics are the metrics read from the spreadsheet; the rest are derived.
var SourceMetrics = []Metric{
	Budget2025,
	Investment2025,
	Budget2026,
	Investment2026,
	BudgetDelta,
	InvestmentDelta,
	BudgetDeltaPct,
	InvestmentDeltaPct,
}

const metricCount = 10

var metricIndex = func() map[Metric]int {
	idx := make(map[Metric]int, len(Metrics))
	for i, m := range Metrics {
		idx[m] = i
	}
	return idx
}()

// Known reports whether m is one of the dashboard metrics.
func (m Metric) Known() bool {
	_, ok := metricIndex[m]
	return ok
}

// PercentText reports whether the spreadsheet stores m as localized percent text.
func (m Metric) PercentText() bool {
	return m == BudgetDeltaPct || m == InvestmentDeltaPct
}

// Derived reports whether m is computed at load time rather than read.
func (m Metric) Derived() bool {
	return m == InvestmentPct2025 || m == InvestmentPct2026
}

type (
	// Record is one budget line item. Values are fixed after construction.
	Record struct {
		MacroGroup string
		SubGroup   string
		Agency     string
		values     [metricCount]float64
	}

	// Dataset is the ordered, read-only set of records loaded at startup.
	Dataset struct {
		records []Record
	}
)

// NewRecord builds a record. Metrics absent from values, or unknown ones, hold no value.
func NewRecord(macroGroup, subGroup, agency string, values map[Metric]float64) Record {
	r := Record{MacroGroup: macroGroup, SubGroup: subGroup, Agency: agency}
	for i := range r.values {
		r.values[i] = math.NaN()
	}
	for m, v := range values {
		if i, ok := metricIndex[m]; ok {
			r.values[i] = v
		}
	}
	return r
}

// Value returns the metric value and false when the record has no valid value for it.
func (r Record) Value(m Metric) (float64, bool) {
	v := r.Raw(m)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Raw returns the stored value, NaN for unknown metrics.
func (r Record) Raw(m Metric) float64 {
	i, ok := metricIndex[m]
	if !ok {
		return math.NaN()
	}
	return r.values[i]
}

// NewDataset copies records into an immutable dataset.
func NewDataset(records []Record) *Dataset {
	return &Dataset{records: append([]Record(nil), records...)}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns the i-th record.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	return append([]Record(nil), d.records...)
}

// All iterates records in load order.
func (d *Dataset) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		if d == nil {
			return
		}
		for i, r := range d.records {
			if !yield(i, r) {
				return
			}
		}
	}
}
