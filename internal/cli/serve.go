package cli

import (
	"github.com/spf13/cobra"

	apphttp "loadash/internal/http"
	applog "loadash/internal/log"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o)
		},
	}
}

// runServe loads the dataset once and serves it until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, o *options) error {
	ctx, cancel := SignalContext(cmd.Context(), o.logger)
	defer cancel()

	loaded, err := LoadDataset(ctx, o.cfg, o.logger)
	if err != nil {
		o.logger.Error("Failed to load dataset", applog.FieldError, err, applog.FieldOperation, applog.OpStartup)
		return err
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + o.cfg.Port,
		Dataset:            loaded.Dataset,
		Labels:             loaded.Labels,
		Source:             loaded.Source,
		Footer:             o.cfg.FooterText,
		Logger:             o.logger.WithComponent(applog.ComponentHTTP),
		ChartCacheSize:     o.cfg.ChartCacheSize,
		ChartCacheTTL:      o.cfg.ChartCacheTTL,
		RateLimitPerMinute: o.cfg.RateLimitPerMinute,
	})
	if err != nil {
		return err
	}

	o.logger.Info("Starting dashboard",
		applog.FieldBackend, o.cfg.DataBackend,
		applog.FieldSource, loaded.Source,
		applog.FieldRows, loaded.Dataset.Len(),
		"port", o.cfg.Port)
	if err := srv.Run(ctx); err != nil {
		o.logger.Error("Server stopped with error", applog.FieldError, err)
		return err
	}
	o.logger.Info("Server stopped")
	return nil
}
