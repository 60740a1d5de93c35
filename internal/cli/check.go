package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"loadash/internal/core"
	"loadash/internal/filter"
)

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured data source and summarize it per macro group",
		Long: `check loads the data source exactly as serve would, failing on missing
columns or unparseable cells, and prints line counts and budget totals per
macro group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := LoadDataset(cmd.Context(), o.cfg, o.logger)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), loaded)
		},
	}
}

type macroSummary struct {
	lines      int
	subGroups  map[string]struct{}
	agencies   map[string]struct{}
	budget2025 float64
	budget2026 float64
}

func writeSummary(w io.Writer, loaded *Loaded) error {
	ds := loaded.Dataset
	macros := filter.MacroChoices(ds).Values()
	byMacro := make(map[string]*macroSummary, len(macros))
	for _, m := range macros {
		byMacro[m] = &macroSummary{subGroups: map[string]struct{}{}, agencies: map[string]struct{}{}}
	}
	total := &macroSummary{subGroups: map[string]struct{}{}, agencies: map[string]struct{}{}}

	for _, r := range ds.All() {
		for _, s := range []*macroSummary{byMacro[r.MacroGroup], total} {
			if s == nil {
				continue
			}
			s.lines++
			if r.SubGroup != "" {
				s.subGroups[r.MacroGroup+"\x00"+r.SubGroup] = struct{}{}
			}
			if r.Agency != "" {
				s.agencies[r.Agency] = struct{}{}
			}
			if v, ok := r.Value(core.Budget2025); ok {
				s.budget2025 += v
			}
			if v, ok := r.Value(core.Budget2026); ok {
				s.budget2026 += v
			}
		}
	}

	fmt.Fprintf(w, "Fonte: %s\n", loaded.Source)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{loaded.Columns.MacroGroup, "Linhas", "Subgrupos", "Órgãos",
		loaded.Labels.Label(core.Budget2025), loaded.Labels.Label(core.Budget2026)})
	row := func(name string, s *macroSummary) table.Row {
		return table.Row{name, s.lines, len(s.subGroups), len(s.agencies),
			core.FormatValue(core.Budget2025, s.budget2025, true),
			core.FormatValue(core.Budget2026, s.budget2026, true)}
	}
	for _, m := range macros {
		t.AppendRow(row(m, byMacro[m]))
	}
	t.AppendFooter(row("Total", total))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
	return nil
}
