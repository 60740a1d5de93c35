// Package http provides HTTP server and handler implementations.
//
// This file decodes dashboard state from query strings. The browser form
// re-sends the whole selection with every event, so the server keeps no
// session state.

package http

import (
	"net/url"
	"strings"

	"loadash/internal/core"
	"loadash/internal/filter"
)

// Query parameter names shared by the templates and the JSON API.
const (
	ParamEvent      = "event"
	ParamMacroGroup = "macro"
	ParamSubGroup   = "subgroup"
	ParamAgency     = "agency"
	ParamMetric     = "metric"
	// ParamMetricsSet marks a form that always submits its metric list, so an
	// empty list means "no metrics" rather than "use the defaults".
	ParamMetricsSet = "metrics_set"
)

// ParseState extracts the filter and metric selection and the event kind.
// Values are not validated against the dataset here; filter.Apply clamps them.
func ParseState(q url.Values) (filter.State, filter.EventKind) {
	st := filter.State{
		Filter: core.FilterSelection{
			MacroGroup: core.ParseSelection(sanitizeInput(q.Get(ParamMacroGroup))),
			SubGroup:   core.ParseSelection(sanitizeInput(q.Get(ParamSubGroup))),
			Agencies:   core.Agencies(sanitizeAll(q[ParamAgency])...),
		},
		Metrics: ParseMetrics(q),
	}
	return st, filter.ParseEventKind(strings.TrimSpace(q.Get(ParamEvent)))
}

// ParseMetrics returns the requested metrics in order, or the default
// selection when the request carries none and is not an explicit form post.
// A comma separated value is split, so ?metric=a,b works as well.
func ParseMetrics(q url.Values) core.MetricSelection {
	var metrics []core.Metric
	for _, raw := range q[ParamMetric] {
		for _, part := range strings.Split(raw, ",") {
			if v := sanitizeInput(part); v != "" {
				metrics = append(metrics, core.Metric(v))
			}
		}
	}
	if len(metrics) == 0 && q.Get(ParamMetricsSet) == "" {
		return append(core.MetricSelection(nil), core.DefaultMetrics...)
	}
	return core.NewMetricSelection(metrics...)
}

// EncodeState is the inverse of ParseState, used for links such as the SVG
// download.
func EncodeState(st filter.State) url.Values {
	q := url.Values{}
	if v, ok := st.Filter.MacroGroup.Value(); ok {
		q.Set(ParamMacroGroup, v)
	}
	if v, ok := st.Filter.SubGroup.Value(); ok {
		q.Set(ParamSubGroup, v)
	}
	for _, a := range st.Filter.Agencies.Values() {
		q.Add(ParamAgency, a)
	}
	for _, m := range st.Metrics {
		q.Add(ParamMetric, string(m))
	}
	q.Set(ParamMetricsSet, "1")
	return q
}

func sanitizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
