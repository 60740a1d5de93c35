package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"loadash/internal/chart"
	"loadash/internal/core"
	"loadash/internal/filter"
	"loadash/internal/render"
)

type chartFlags struct {
	macro    string
	subGroup string
	agencies []string
	metrics  []string
	svgPath  string
}

func newChartCmd(o *options) *cobra.Command {
	f := &chartFlags{}
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Project the filtered chart as a table, optionally writing it as SVG",
		Example: `  loadash chart --macro Saúde --metric investmentPct2025,investmentPct2026
  loadash chart --agency "Polícia Civil" --agency "Polícia Militar" --svg policia.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := LoadDataset(cmd.Context(), o.cfg, o.logger)
			if err != nil {
				return err
			}
			return runChart(cmd.OutOrStdout(), loaded, f)
		},
	}
	cmd.Flags().StringVar(&f.macro, "macro", "", "macro group, all when empty")
	cmd.Flags().StringVar(&f.subGroup, "subgroup", "", "subgroup, all when empty")
	// Agency names may contain commas, so each --agency is taken whole.
	cmd.Flags().StringArrayVar(&f.agencies, "agency", nil, "agency (repeatable), all when empty")
	cmd.Flags().StringSliceVarP(&f.metrics, "metric", "m", core.DefaultMetrics.Strings(), "metric identifiers in series order")
	cmd.Flags().StringVar(&f.svgPath, "svg", "", "write the rendered chart to this file")
	return cmd
}

func runChart(w io.Writer, loaded *Loaded, f *chartFlags) error {
	metrics := make([]core.Metric, 0, len(f.metrics))
	for _, m := range f.metrics {
		metric := core.Metric(m)
		if !metric.Known() {
			// Display labels are accepted too.
			if byLabel, ok := loaded.Labels.Metric(m); ok {
				metric = byLabel
			} else {
				return fmt.Errorf("unknown metric %q", m)
			}
		}
		metrics = append(metrics, metric)
	}

	u := filter.Apply(loaded.Dataset, filter.State{
		Filter: core.FilterSelection{
			MacroGroup: core.ParseSelection(f.macro),
			SubGroup:   core.ParseSelection(f.subGroup),
			Agencies:   core.Agencies(f.agencies...),
		},
		Metrics: core.NewMetricSelection(metrics...),
	}, filter.EventAgency)
	spec := chart.Project(u.Records, u.State.Metrics, loaded.Labels)

	if err := writeSpecTable(w, spec); err != nil {
		return err
	}
	if f.svgPath == "" {
		return nil
	}

	if err := writeSVG(f.svgPath, spec); err != nil {
		return err
	}
	fmt.Fprintf(w, "SVG escrito em %s\n", f.svgPath)
	return nil
}

// writeSVG renders spec before touching path, so a failed render leaves any
// existing file intact.
func writeSVG(path string, spec chart.Spec) error {
	svg, err := render.SVGBytes(spec, render.Options{})
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeSpecTable prints one row per category, top bar first.
func writeSpecTable(w io.Writer, spec chart.Spec) error {
	if spec.Placeholder {
		_, err := fmt.Fprintln(w, spec.Title)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	header := table.Row{spec.YAxisTitle}
	configs := make([]table.ColumnConfig, 0, len(spec.Series))
	for i, s := range spec.Series {
		header = append(header, s.Name)
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for c := len(spec.Categories) - 1; c >= 0; c-- {
		row := table.Row{spec.Categories[c]}
		for s, series := range spec.Series {
			v, ok := spec.Value(s, c)
			row = append(row, core.FormatValue(series.Metric, v, ok))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}
