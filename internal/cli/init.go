// Package cli provides the loadash command line and the initialization
// shared by its commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"loadash/internal/backend"
	"loadash/internal/config"
	"loadash/internal/core"
	applog "loadash/internal/log"
)

// SetupLogger builds the application logger for level and sets it as the
// slog default.
func SetupLogger(w io.Writer, level, format string) (*applog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentApp,
		Format:    format,
		Output:    w,
	})
	applog.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Loaded is a dataset ready to serve with the schema it was read under.
type Loaded struct {
	Dataset *core.Dataset
	Labels  *core.LabelMap
	Columns core.ColumnMap
	Source  string
}

// loadSchema resolves the column headers and metric labels for cfg.
func loadSchema(cfg *config.Config) (core.ColumnMap, *core.LabelMap, error) {
	schema, err := config.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return core.ColumnMap{}, nil, err
	}
	cols, err := schema.ColumnMap()
	if err != nil {
		return core.ColumnMap{}, nil, fmt.Errorf("schema columns: %w", err)
	}
	labels, err := schema.LabelMap()
	if err != nil {
		return core.ColumnMap{}, nil, fmt.Errorf("schema labels: %w", err)
	}
	return cols, labels, nil
}

// LoadDataset validates cfg, opens the configured backend and derives the
// dataset. A failure here is fatal for every command that needs data.
func LoadDataset(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Loaded, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cols, labels, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg, cols)
	if err != nil {
		return nil, err
	}
	storageLog := logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)
	res, err := backend.NewFactory(storageLog).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	if res.Cleanup != nil {
		defer func() {
			if cerr := res.Cleanup(); cerr != nil {
				logger.Warn("Backend cleanup failed", "error", cerr)
			}
		}()
	}

	ds, err := backend.LoadDataset(ctx, res.Backend, cols, storageLog)
	if err != nil {
		return nil, err
	}
	return &Loaded{Dataset: ds, Labels: labels, Columns: cols, Source: res.Backend.Describe()}, nil
}
