package tabular

import (
	"context"
	"fmt"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// MemoryLoader is an in-memory TableLoader and RecordStore, used in tests
// and for sources that were already parsed elsewhere.
type MemoryLoader struct {
	Tables  map[string]*models.Table
	Schemas map[string]models.TableSchema
}

// NewMemoryLoader creates an empty in-memory loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		Tables:  make(map[string]*models.Table),
		Schemas: make(map[string]models.TableSchema),
	}
}

// AddTable registers a table and returns the loader for chaining.
func (m *MemoryLoader) AddTable(t *models.Table) *MemoryLoader {
	m.Tables[t.Name] = t
	return m
}

// SetSchema registers declared schema metadata for a table.
func (m *MemoryLoader) SetSchema(table string, schema models.TableSchema) *MemoryLoader {
	m.Schemas[table] = schema
	return m
}

// LoadAll returns a shallow copy of the table map.
func (m *MemoryLoader) LoadAll(_ context.Context) (map[string]*models.Table, error) {
	out := make(map[string]*models.Table, len(m.Tables))
	for name, t := range m.Tables {
		out[name] = t
	}
	return out, nil
}

// Schema returns declared metadata for a table.
func (m *MemoryLoader) Schema(table string) (models.TableSchema, bool) {
	s, ok := m.Schemas[table]
	return s, ok
}

// LoadTable returns the rows of one table.
func (m *MemoryLoader) LoadTable(_ context.Context, name string) ([]models.Row, error) {
	t, ok := m.Tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not loaded", name)
	}
	return t.Rows, nil
}

// Close is a no-op for the in-memory loader.
func (m *MemoryLoader) Close() {}

var (
	_ TableLoader = (*MemoryLoader)(nil)
	_ RecordStore = (*MemoryLoader)(nil)
)
