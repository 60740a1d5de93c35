package http

import (
	"html/template"
	"strings"

	"loadash/internal/chart"
	"loadash/internal/core"
	"loadash/internal/filter"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

type (
	optionView struct {
		Value    string
		Label    string
		Selected bool
	}

	// selectView is one dropdown. OOB marks it for an out-of-band swap.
	selectView struct {
		ID       string
		Name     string
		Label    string
		Event    string
		Multiple bool
		OOB      bool
		Options  []optionView
	}

	valueRow struct {
		Agency string
		Cells  []string
	}

	chartView struct {
		Spec    chart.Spec
		SVGURL  string
		Records int
		Headers []string
		Rows    []valueRow
	}

	pageData struct {
		Title    string
		Footer   string
		Source   string
		Macro    selectView
		SubGroup selectView
		Agency   selectView
		Metrics  selectView
		Chart    chartView
	}
)

func singleSelect(id, label string, event filter.EventKind, choices core.ChoiceSet, selected core.Selection) selectView {
	v := selectView{ID: id, Name: id, Label: label, Event: event.String()}
	for _, o := range choices.Options {
		v.Options = append(v.Options, optionView{
			Value:    o.Value.String(),
			Label:    o.Label,
			Selected: o.Value == selected,
		})
	}
	return v
}

func agencySelect(choices core.ChoiceSet, selected core.AgencySelection) selectView {
	v := selectView{ID: ParamAgency, Name: ParamAgency, Label: "Órgão", Event: filter.EventAgency.String(), Multiple: true}
	for _, o := range choices.Options {
		val, specific := o.Value.Value()
		v.Options = append(v.Options, optionView{
			Value:    val,
			Label:    o.Label,
			Selected: (!specific && selected.IsAll()) || (specific && !selected.IsAll() && selected.Matches(val)),
		})
	}
	return v
}

func metricSelect(labels *core.LabelMap, selected core.MetricSelection) selectView {
	chosen := make(map[core.Metric]bool, len(selected))
	for _, m := range selected {
		chosen[m] = true
	}
	v := selectView{ID: ParamMetric, Name: ParamMetric, Label: "Indicadores", Event: filter.EventMetrics.String(), Multiple: true}
	for _, m := range labels.Metrics() {
		v.Options = append(v.Options, optionView{Value: string(m), Label: labels.Label(m), Selected: chosen[m]})
	}
	return v
}

func subGroupSelect(u filter.ChoiceUpdate) selectView {
	return singleSelect(ParamSubGroup, "Subgrupo", filter.EventSubGroup, u.Choices, u.Default)
}

func macroSelect(ds *core.Dataset, selected core.Selection) selectView {
	return singleSelect(ParamMacroGroup, "Macro grupo", filter.EventMacroGroup, filter.MacroChoices(ds), selected)
}

// newChartView projects records and lays out the value table, largest total
// first so it reads like the chart from top to bottom.
func newChartView(st filter.State, records []core.Record, labels core.Labeler) chartView {
	spec := chart.Project(records, st.Metrics, labels)
	v := chartView{
		Spec:    spec,
		SVGURL:  "/chart.svg?" + EncodeState(st).Encode(),
		Records: len(records),
	}
	if spec.Placeholder {
		return v
	}
	for _, s := range spec.Series {
		v.Headers = append(v.Headers, s.Name)
	}
	for c := len(spec.Categories) - 1; c >= 0; c-- {
		row := valueRow{Agency: spec.Categories[c]}
		for s, series := range spec.Series {
			val, ok := spec.Value(s, c)
			row.Cells = append(row.Cells, core.FormatValue(series.Metric, val, ok))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
