package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"loadash/internal/core"
	"loadash/internal/sheets/memory"
	"loadash/internal/sheets/xlsx"
	"loadash/internal/storage"
)

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a workbook or CSV export into the SQLite database",
		Long: `import replaces the budget lines stored in the SQLite database (--db or
SQLITE_DB_PATH) with the rows of FILE, an .xlsx workbook or a CSV export
delimited by ';' or ','. Serve it afterwards with --backend sqlite.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, _, err := loadSchema(o.cfg)
			if err != nil {
				return err
			}
			table, err := readSource(cmd, args[0], o.cfg.DataSheet)
			if err != nil {
				return err
			}
			// Fail before touching the database when the file cannot be derived.
			if _, err := core.Derive(table, cols); err != nil {
				return fmt.Errorf("validate %s: %w", args[0], err)
			}

			repo, err := storage.NewSQLiteRepository(o.cfg.SQLiteDBPath, cols)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.ImportTable(cmd.Context(), table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d linhas importadas em %s\n", n, o.cfg.SQLiteDBPath)
			return nil
		},
	}
}

func readSource(cmd *cobra.Command, path, sheet string) (core.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		r, err := xlsx.New(path, sheet)
		if err != nil {
			return core.RawTable{}, err
		}
		return r.ReadTable(cmd.Context())
	default:
		s, err := memory.NewFromFile(path)
		if err != nil {
			return core.RawTable{}, err
		}
		return s.ReadTable(cmd.Context())
	}
}
