// Package sink defines where computed summary tables are written.
package sink

import (
	"context"

	"grantstats/internal/core"
)

// Ports for outbound adapters.
type (
	// TableWriter persists a complete set of summary tables, replacing
	// whatever a previous run left behind.
	TableWriter interface {
		Name() string
		WriteTables(ctx context.Context, tables []core.Table) error
		Close() error
	}

	// TableReader loads a summary table back.
	TableReader interface {
		ReadTable(ctx context.Context, kind core.TableKind) (core.Table, error)
	}
)
