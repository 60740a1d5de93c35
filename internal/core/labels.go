package core

import "fmt"

// Labeler maps a metric to its display name.
type Labeler interface {
	Label(m Metric) string
}

// LabelPair binds a display label to a metric.
type LabelPair struct {
	Label  string
	Metric Metric
}

// LabelMap is an immutable bidirectional mapping between display labels and
// metrics. Reverse lookups of unmapped metrics fall back to the identifier.
type LabelMap struct {
	byLabel  map[string]Metric
	byMetric map[Metric]string
	order    []Metric
}

var _ Labeler = (*LabelMap)(nil)

// DefaultLabelPairs are the labels of the LOA dashboard, in menu order.
func DefaultLabelPairs() []LabelPair {
	return []LabelPair{
		{"Orçamento 2025", Budget2025},
		{"Investimento 2025", Investment2025},
		{"% Investimento 2025", InvestmentPct2025},
		{"Orçamento 2026", Budget2026},
		{"Investimento 2026", Investment2026},
		{"% Investimento 2026", InvestmentPct2026},
		{"Δ Orçamento (absoluto)", BudgetDelta},
		{"Δ Investimento (absoluto)", InvestmentDelta},
		{"Δ Orçamento (%)", BudgetDeltaPct},
		{"Δ Investimento (%)", InvestmentDeltaPct},
	}
}

// NewLabelMap builds the mapping. Labels and metrics must both be unique.
func NewLabelMap(pairs []LabelPair) (*LabelMap, error) {
	lm := &LabelMap{
		byLabel:  make(map[string]Metric, len(pairs)),
		byMetric: make(map[Metric]string, len(pairs)),
		order:    make([]Metric, 0, len(pairs)),
	}
	for _, p := range pairs {
		if p.Label == "" || p.Metric == "" {
			return nil, fmt.Errorf("label pair %q -> %q: label and metric are required", p.Label, p.Metric)
		}
		if _, dup := lm.byLabel[p.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q", p.Label)
		}
		if _, dup := lm.byMetric[p.Metric]; dup {
			return nil, fmt.Errorf("duplicate metric %q", p.Metric)
		}
		lm.byLabel[p.Label] = p.Metric
		lm.byMetric[p.Metric] = p.Label
		lm.order = append(lm.order, p.Metric)
	}
	return lm, nil
}

// DefaultLabels returns the label map built from DefaultLabelPairs.
func DefaultLabels() *LabelMap {
	lm, err := NewLabelMap(DefaultLabelPairs())
	if err != nil {
		panic(err)
	}
	return lm
}

// Label returns the display label of m, or m itself when unmapped.
func (l *LabelMap) Label(m Metric) string {
	if l != nil {
		if label, ok := l.byMetric[m]; ok {
			return label
		}
	}
	return string(m)
}

// Metric resolves a display label.
func (l *LabelMap) Metric(label string) (Metric, bool) {
	if l == nil {
		return "", false
	}
	m, ok := l.byLabel[label]
	return m, ok
}

// Metrics returns the mapped metrics in definition order.
func (l *LabelMap) Metrics() []Metric {
	if l == nil {
		return nil
	}
	return append([]Metric(nil), l.order...)
}
