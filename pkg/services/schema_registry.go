// Package services implements the knowledge graph engine: graph building,
// deductive reasoning, custom rules, chain search, and result fusion.
package services

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Known primary-key column synonyms, checked after the `*_id` / `*ID`
// pattern.
var pkSynonyms = []string{"id", "key", "code", "uid", "number"}

// Known label column names, in priority order.
var labelSynonyms = []string{"name", "label", "title", "designation", "callsign", "description"}

// tableResolution is the cached outcome of the PK/label resolver chain for
// one table.
type tableResolution struct {
	PrimaryKey    string
	LabelColumn   string
	PKFallback    bool // first-column fallback was used
	LabelResolved bool
}

// SchemaRegistry resolves each table's primary-key and label columns via a
// priority chain: explicit loader schema entry, then name-pattern
// heuristics, then first-column fallback. Resolution runs once per table
// and is cached.
type SchemaRegistry struct {
	loader tabular.TableLoader
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]tableResolution
}

// NewSchemaRegistry creates a schema registry backed by the loader's
// declared metadata.
func NewSchemaRegistry(loader tabular.TableLoader, logger *zap.Logger) *SchemaRegistry {
	return &SchemaRegistry{
		loader: loader,
		logger: logger.Named("schema-registry"),
		cache:  make(map[string]tableResolution),
	}
}

// Resolve returns the table's PK/label resolution, computing and caching it
// on first use.
func (r *SchemaRegistry) Resolve(t *models.Table) tableResolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.cache[t.Name]; ok {
		return res
	}
	res := r.resolve(t)
	r.cache[t.Name] = res
	return res
}

// Invalidate drops all cached resolutions. Called on rebuild.
func (r *SchemaRegistry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]tableResolution)
}

func (r *SchemaRegistry) resolve(t *models.Table) tableResolution {
	var res tableResolution

	// 1. Explicit registry entry from the loader.
	if r.loader != nil {
		if schema, ok := r.loader.Schema(t.Name); ok {
			if schema.PrimaryKey != "" && hasColumn(t, schema.PrimaryKey) {
				res.PrimaryKey = schema.PrimaryKey
			}
			if schema.LabelColumn != "" && hasColumn(t, schema.LabelColumn) {
				res.LabelColumn = schema.LabelColumn
				res.LabelResolved = true
			}
		}
	}

	// 2. Name-pattern heuristics.
	if res.PrimaryKey == "" {
		res.PrimaryKey = heuristicPrimaryKey(t)
	}
	if res.LabelColumn == "" {
		res.LabelColumn = heuristicLabelColumn(t)
		res.LabelResolved = res.LabelColumn != ""
	}

	// 3. First-column fallback for the PK. A warning signal: minted URIs
	// may not be unique if the first column repeats.
	if res.PrimaryKey == "" && len(t.Columns) > 0 {
		res.PrimaryKey = t.Columns[0]
		res.PKFallback = true
		r.logger.Warn("No primary key resolved, falling back to first column",
			zap.String("table", t.Name),
			zap.String("column", res.PrimaryKey))
	}

	return res
}

// heuristicPrimaryKey looks for `{table}_id`, any `*_id`/`*ID` column, then
// the known synonyms.
func heuristicPrimaryKey(t *models.Table) string {
	singularTable := strings.ToLower(strings.TrimSuffix(t.Name, "s"))

	// Exact {table}_id match wins over any other *_id column.
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if lower == singularTable+"_id" || lower == strings.ToLower(t.Name)+"_id" {
			return col
		}
	}
	for _, col := range t.Columns {
		if strings.HasSuffix(strings.ToLower(col), "_id") || strings.HasSuffix(col, "ID") {
			// A column naming another table is a foreign key, not the PK.
			if isForeignKeyName(t.Name, col) {
				continue
			}
			return col
		}
	}
	for _, syn := range pkSynonyms {
		for _, col := range t.Columns {
			if strings.EqualFold(col, syn) {
				return col
			}
		}
	}
	return ""
}

// isForeignKeyName reports whether a *_id column names a table other than
// its own ("axis_id" in table "units").
func isForeignKeyName(table, column string) bool {
	base := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(column), "_id"), "id")
	base = strings.TrimSuffix(base, "_")
	if base == "" {
		return false
	}
	tableLower := strings.ToLower(table)
	return base != tableLower && base+"s" != tableLower && base != strings.TrimSuffix(tableLower, "s")
}

func heuristicLabelColumn(t *models.Table) string {
	for _, syn := range labelSynonyms {
		for _, col := range t.Columns {
			if strings.EqualFold(col, syn) {
				return col
			}
		}
	}
	return ""
}

func hasColumn(t *models.Table, name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}
