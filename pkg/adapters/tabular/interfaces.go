// Package tabular defines the engine's view of row-oriented data sources.
// Loading and validating source files is a collaborator concern; the engine
// only consumes these interfaces.
package tabular

import (
	"context"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// TableLoader supplies the full table set for a build cycle, plus per-table
// schema metadata when the source declares it.
type TableLoader interface {
	// LoadAll returns every table keyed by table name.
	LoadAll(ctx context.Context) (map[string]*models.Table, error)

	// Schema returns declared schema metadata for a table, or ok=false when
	// the source declares none (the builder then falls back to heuristics).
	Schema(table string) (models.TableSchema, bool)
}

// RecordStore serves ad hoc keyword-triggered structured lookups during
// result fusion.
type RecordStore interface {
	// LoadTable returns the rows of one table.
	LoadTable(ctx context.Context, name string) ([]models.Row, error)

	Close()
}
