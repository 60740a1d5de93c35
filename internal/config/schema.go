package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"loadash/internal/core"
)

// Schema maps the spreadsheet layout and the metric display labels. Missing
// entries keep their defaults.
type Schema struct {
	Columns ColumnsSchema     `toml:"columns"`
	Labels  map[string]string `toml:"labels"`
}

// ColumnsSchema holds the header of each spreadsheet column, metrics keyed by
// identifier (budget2025, budgetDeltaPct, ...).
type ColumnsSchema struct {
	MacroGroup string            `toml:"macro_group"`
	SubGroup   string            `toml:"sub_group"`
	Agency     string            `toml:"agency"`
	Metrics    map[string]string `toml:"metrics"`
}

// DefaultSchema describes the LOA 2025 x 2026 spreadsheet.
func DefaultSchema() Schema {
	cols := core.DefaultColumns()
	s := Schema{
		Columns: ColumnsSchema{
			MacroGroup: cols.MacroGroup,
			SubGroup:   cols.SubGroup,
			Agency:     cols.Agency,
			Metrics:    map[string]string{},
		},
		Labels: map[string]string{},
	}
	for _, m := range core.SourceMetrics {
		s.Columns.Metrics[string(m)] = cols.Header(m)
	}
	for _, p := range core.DefaultLabelPairs() {
		s.Labels[string(p.Metric)] = p.Label
	}
	return s
}

// LoadSchema reads path over the defaults. An empty path returns the defaults.
func LoadSchema(path string) (Schema, error) {
	s := DefaultSchema()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading schema: %w", err)
	}

	var override Schema
	md, err := toml.Decode(string(data), &override)
	if err != nil {
		return s, fmt.Errorf("parsing schema: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return s, fmt.Errorf("parsing schema: unknown keys %s", strings.Join(keys, ", "))
	}

	if v := strings.TrimSpace(override.Columns.MacroGroup); v != "" {
		s.Columns.MacroGroup = v
	}
	if v := strings.TrimSpace(override.Columns.SubGroup); v != "" {
		s.Columns.SubGroup = v
	}
	if v := strings.TrimSpace(override.Columns.Agency); v != "" {
		s.Columns.Agency = v
	}
	for k, v := range override.Columns.Metrics {
		s.Columns.Metrics[k] = strings.TrimSpace(v)
	}
	for k, v := range override.Labels {
		s.Labels[k] = strings.TrimSpace(v)
	}
	return s, nil
}

// ColumnMap validates the schema's columns and converts them.
func (s Schema) ColumnMap() (core.ColumnMap, error) {
	cols := core.ColumnMap{
		MacroGroup: s.Columns.MacroGroup,
		SubGroup:   s.Columns.SubGroup,
		Agency:     s.Columns.Agency,
		Metrics:    map[core.Metric]string{},
	}
	for k, v := range s.Columns.Metrics {
		m := core.Metric(k)
		if !m.Known() || m.Derived() {
			return core.ColumnMap{}, fmt.Errorf("schema: %q is not a spreadsheet metric", k)
		}
		if v == "" {
			return core.ColumnMap{}, fmt.Errorf("schema: empty header for %q", k)
		}
		cols.Metrics[m] = v
	}
	for _, m := range core.SourceMetrics {
		if _, ok := cols.Metrics[m]; !ok {
			return core.ColumnMap{}, fmt.Errorf("schema: no header for %q", m)
		}
	}
	return cols, nil
}

// LabelMap builds the label mapping in dashboard menu order.
func (s Schema) LabelMap() (*core.LabelMap, error) {
	for k := range s.Labels {
		if !core.Metric(k).Known() {
			return nil, fmt.Errorf("schema: label for unknown metric %q", k)
		}
	}
	var pairs []core.LabelPair
	for _, m := range core.Metrics {
		if l, ok := s.Labels[string(m)]; ok {
			pairs = append(pairs, core.LabelPair{Label: l, Metric: m})
		}
	}
	return core.NewLabelMap(pairs)
}

// WriteSchema encodes s as TOML.
func WriteSchema(w io.Writer, s Schema) error {
	return toml.NewEncoder(w).Encode(s)
}
