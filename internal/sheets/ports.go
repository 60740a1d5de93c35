package sheets

import (
	"context"

	"loadash/internal/core"
)

// Ports for inbound data adapters.
type (
	// TableReader reads the budget spreadsheet as a header row plus data rows.
	// Cells are returned as text; parsing happens in core.Derive.
	TableReader interface {
		ReadTable(ctx context.Context) (core.RawTable, error)
	}

	// Describer is implemented by readers that can name their source for logs
	// and the check command.
	Describer interface {
		Describe() string
	}
)
