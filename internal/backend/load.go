package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loadash/internal/core"
)

// LoadDataset reads the table once and derives the immutable Dataset.
// Any failure here is a load-time error and should stop startup.
func LoadDataset(ctx context.Context, b Backend, cols core.ColumnMap, logger *slog.Logger) (*core.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	table, err := b.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Describe(), err)
	}
	ds, err := core.Derive(table, cols)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", b.Describe(), err)
	}

	logger.InfoContext(ctx, "Dataset loaded",
		"source", b.Describe(),
		"rows", ds.Len(),
		"duration", time.Since(start))
	return ds, nil
}
