package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"loadash/internal/config"
	applog "loadash/internal/log"
)

// Version information (set at build time).
var Version = "0.1.0"

// options holds the global flags and the state PersistentPreRunE prepares
// for every subcommand.
type options struct {
	port       string
	backend    string
	dataFile   string
	dataSheet  string
	dbPath     string
	schemaFile string
	logLevel   string
	logFormat  string
	noEnvFile  bool

	cfg    *config.Config
	logger *applog.Logger
}

// NewRootCmd creates the loadash command. Without a subcommand it serves the
// dashboard.
func NewRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:   "loadash",
		Short: "LOA 2025 x 2026 budget and investment dashboard",
		Long: `loadash serves an interactive comparison of the 2025 and 2026 annual
budget laws (LOA): budget and investment per agency, filtered by macro group,
subgroup and agency, drawn as a grouped horizontal bar chart.

Configuration comes from the environment (and a .env file when present);
flags override it.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return o.prepare(cmd.Root().PersistentFlags(), cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.port, "port", "", "HTTP port (env PORT)")
	pf.StringVarP(&o.backend, "backend", "b", "", fmt.Sprintf("data backend %v (env DATA_BACKEND)", config.Backends))
	pf.StringVarP(&o.dataFile, "data-file", "f", "", "workbook or CSV seed (env DATA_FILE)")
	pf.StringVar(&o.dataSheet, "sheet", "", "worksheet name, first sheet when empty (env DATA_SHEET)")
	pf.StringVar(&o.dbPath, "db", "", "SQLite database path (env SQLITE_DB_PATH)")
	pf.StringVar(&o.schemaFile, "schema", "", "TOML file with column headers and labels (env SCHEMA_FILE)")
	pf.StringVar(&o.logLevel, "log-level", "", "debug|info|warn|error (env LOG_LEVEL)")
	pf.StringVar(&o.logFormat, "log-format", "text", "text|json")
	pf.BoolVar(&o.noEnvFile, "no-env-file", false, "do not read .env")

	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Backends, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCmd(o))
	rootCmd.AddCommand(newCheckCmd(o))
	rootCmd.AddCommand(newChartCmd(o))
	rootCmd.AddCommand(newImportCmd(o))
	rootCmd.AddCommand(newSchemaCmd(o))

	return rootCmd
}

// prepare loads the environment configuration, applies explicit flags on top
// of it and sets up logging.
func (o *options) prepare(flags *pflag.FlagSet, cmd *cobra.Command) error {
	if !o.noEnvFile {
		LoadEnvFile()
	}
	cfg := config.Load()

	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("port", &cfg.Port, o.port)
	override("backend", &cfg.DataBackend, o.backend)
	override("data-file", &cfg.DataFile, o.dataFile)
	override("sheet", &cfg.DataSheet, o.dataSheet)
	override("db", &cfg.SQLiteDBPath, o.dbPath)
	override("schema", &cfg.SchemaFile, o.schemaFile)
	override("log-level", &cfg.LogLevel, o.logLevel)
	// A memory backend chosen by flag serves the sample unless a seed is given.
	if flags.Changed("backend") && cfg.DataBackend == "memory" && !flags.Changed("data-file") {
		cfg.DataFile = ""
	}

	logger, err := SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, o.logFormat)
	if err != nil {
		return err
	}
	o.cfg, o.logger = cfg, logger
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
