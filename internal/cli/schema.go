package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loadash/internal/config"
)

func newSchemaCmd(o *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the effective column and label schema as TOML",
		Long: `schema prints the column headers and metric labels in effect (the
defaults merged with --schema when given). Edit the output and pass it back
with --schema or SCHEMA_FILE to read a spreadsheet with different headers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.LoadSchema(o.cfg.SchemaFile)
			if err != nil {
				return err
			}
			// Reject a schema the loader would refuse.
			if _, err := s.ColumnMap(); err != nil {
				return err
			}
			if _, err := s.LabelMap(); err != nil {
				return err
			}

			if out == "" {
				return config.WriteSchema(cmd.OutOrStdout(), s)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := config.WriteSchema(f, s); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
