// Package chart projects filtered budget lines into a declarative grouped
// horizontal bar chart. Rendering is left to the caller.
package chart

import (
	"math"
	"sort"

	"loadash/internal/core"
)

const (
	// NoDataTitle is the placeholder title shown when nothing matches.
	NoDataTitle = "Sem dados para esse filtro"
	// XAxisTitle labels the value axis.
	XAxisTitle = "Valor / Variação"
	// YAxisTitle labels the agency axis.
	YAxisTitle = "Órgão"
	// LegendTitle heads the series legend.
	LegendTitle = "Indicador"
	// Horizontal is the only orientation: bars grow along the x axis.
	Horizontal = "h"
	// GroupBarMode draws the series side by side within a category.
	GroupBarMode = "group"
)

// Palette is the colour-blind safe qualitative sequence used for series.
var Palette = []string{
	"#88CCEE", "#CC6677", "#DDCC77", "#117733", "#332288", "#AA4499",
	"#44AA99", "#999933", "#882255", "#661100", "#888888",
}

type (
	// Point is one bar. A nil Value means the record has no value for the
	// metric (empty cell or a ratio over a zero budget).
	Point struct {
		Category string   `json:"category"`
		Value    *float64 `json:"value"`
	}

	// Series is one metric across every category, drawn in Color.
	Series struct {
		Metric core.Metric `json:"metric"`
		Name   string      `json:"name"`
		Color  string      `json:"color"`
		Points []Point     `json:"points"`
	}

	// Spec describes the chart to draw. Categories hold the agency axis from
	// bottom to top; every series carries one point per category in that order.
	Spec struct {
		Title       string   `json:"title,omitempty"`
		Placeholder bool     `json:"placeholder"`
		Orientation string   `json:"orientation"`
		BarMode     string   `json:"barMode"`
		XAxisTitle  string   `json:"xAxisTitle"`
		YAxisTitle  string   `json:"yAxisTitle"`
		LegendTitle string   `json:"legendTitle"`
		Categories  []string `json:"categories"`
		Series      []Series `json:"series"`
	}
)

// Placeholder returns the empty "no data" chart.
func Placeholder() Spec {
	return Spec{
		Title:       NoDataTitle,
		Placeholder: true,
		Orientation: Horizontal,
		BarMode:     GroupBarMode,
		XAxisTitle:  XAxisTitle,
		YAxisTitle:  YAxisTitle,
		LegendTitle: LegendTitle,
		Categories:  []string{},
		Series:      []Series{},
	}
}

// Project builds one series per metric, in the given order, with one point per
// agency. Agencies are ordered by ascending total across the selected series,
// missing values counting as zero, with ties kept in record order. Records that
// share an agency name are summed into one category.
func Project(records []core.Record, metrics core.MetricSelection, labels core.Labeler) Spec {
	if len(records) == 0 || len(metrics) == 0 {
		return Placeholder()
	}

	var categories []string
	pos := map[string]int{}
	for _, r := range records {
		if _, ok := pos[r.Agency]; ok {
			continue
		}
		pos[r.Agency] = len(categories)
		categories = append(categories, r.Agency)
	}

	// values[s][c] is the sum for series s, category c; NaN when no record
	// contributed a value.
	values := make([][]float64, len(metrics))
	for s, m := range metrics {
		row := make([]float64, len(categories))
		for c := range row {
			row[c] = math.NaN()
		}
		for _, r := range records {
			v, ok := r.Value(m)
			if !ok {
				continue
			}
			c := pos[r.Agency]
			if math.IsNaN(row[c]) {
				row[c] = v
			} else {
				row[c] += v
			}
		}
		values[s] = row
	}

	totals := make([]float64, len(categories))
	for _, row := range values {
		for c, v := range row {
			if !math.IsNaN(v) {
				totals[c] += v
			}
		}
	}

	order := make([]int, len(categories))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] < totals[order[b]] })

	spec := Spec{
		Orientation: Horizontal,
		BarMode:     GroupBarMode,
		XAxisTitle:  XAxisTitle,
		YAxisTitle:  YAxisTitle,
		LegendTitle: LegendTitle,
		Categories:  make([]string, len(order)),
		Series:      make([]Series, len(metrics)),
	}
	for i, c := range order {
		spec.Categories[i] = categories[c]
	}

	colors := assignColors(len(metrics))
	for s, m := range metrics {
		points := make([]Point, len(order))
		for i, c := range order {
			points[i] = Point{Category: categories[c]}
			if v := values[s][c]; !math.IsNaN(v) {
				points[i].Value = &v
			}
		}
		spec.Series[s] = Series{
			Metric: m,
			Name:   labelOf(labels, m),
			Color:  colors[s],
			Points: points,
		}
	}
	return spec
}

// Value returns the value of series s at category index c, and false for
// "no value".
func (s Spec) Value(series, category int) (float64, bool) {
	if series < 0 || series >= len(s.Series) {
		return 0, false
	}
	pts := s.Series[series].Points
	if category < 0 || category >= len(pts) || pts[category].Value == nil {
		return 0, false
	}
	return *pts[category].Value, true
}

func labelOf(labels core.Labeler, m core.Metric) string {
	if labels == nil {
		return string(m)
	}
	if l := labels.Label(m); l != "" {
		return l
	}
	return string(m)
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = Palette[i%len(Palette)]
	}
	return colors
}
