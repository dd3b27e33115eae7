package services

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Two-way vocabulary aliases used for secondary foreign-key resolution.
// When an inferred mapping's raw value finds no target row, the canonical
// alias is tried before giving up.
var valueSynonyms = map[string]string{
	"mech":  "mechanized",
	"arty":  "artillery",
	"recon": "reconnaissance",
	"hq":    "headquarters",
	"log":   "logistics",
	"north": "n",
	"south": "s",
	"east":  "e",
	"west":  "w",
}

// GraphBuilder deterministically transforms a table set plus merged
// relation mappings into the base triple store.
type GraphBuilder struct {
	registry    *SchemaRegistry
	enrichments *EnrichmentRegistry
	logger      *zap.Logger

	// VirtualEntities enables placeholder synthesis for unresolved FKs.
	VirtualEntities bool

	mu      sync.Mutex
	virtual map[string]string // (target type, value) -> virtual entity URI
}

// NewGraphBuilder creates a graph builder.
func NewGraphBuilder(registry *SchemaRegistry, enrichments *EnrichmentRegistry, virtualEntities bool, logger *zap.Logger) *GraphBuilder {
	return &GraphBuilder{
		registry:        registry,
		enrichments:     enrichments,
		VirtualEntities: virtualEntities,
		logger:          logger.Named("graph-builder"),
		virtual:         make(map[string]string),
	}
}

// Build emits schema and instance triples for every table into a fresh
// store. Data-quality problems degrade to report warnings; Build only
// returns an error for contract violations (nil tables).
func (b *GraphBuilder) Build(tables map[string]*models.Table, mappings []models.RelationMapping) (*graph.Store, *models.BuildReport, error) {
	if tables == nil {
		return nil, nil, fmt.Errorf("tables must not be nil")
	}

	b.mu.Lock()
	b.virtual = make(map[string]string)
	b.mu.Unlock()
	b.registry.Invalidate()

	store := graph.NewStore()
	report := &models.BuildReport{}

	mappingIndex := make(map[string]models.RelationMapping, len(mappings))
	for _, m := range mappings {
		mappingIndex[m.Key()] = m
	}

	// Schema triples first: one class per table.
	for name := range tables {
		store.Add(models.T(graph.ClassURI(name), graph.RDFType, graph.RDFSClass))
	}

	for name, table := range tables {
		b.buildTable(store, report, tables, mappingIndex, name, table)
	}

	report.TriplesEmitted = store.Size()
	b.logger.Info("Graph build completed",
		zap.Int("tables", report.TablesProcessed),
		zap.Int("rows", report.RowsProcessed),
		zap.Int("triples", report.TriplesEmitted),
		zap.Int("relations_resolved", report.RelationsResolved),
		zap.Int("relations_unresolved", report.RelationsUnresolved),
		zap.Int("virtual_entities", report.VirtualEntitiesCreated),
		zap.Int("warnings", len(report.Warnings)))
	return store, report, nil
}

func (b *GraphBuilder) buildTable(
	store *graph.Store,
	report *models.BuildReport,
	tables map[string]*models.Table,
	mappings map[string]models.RelationMapping,
	name string,
	table *models.Table,
) {
	report.TablesProcessed++
	if len(table.Rows) == 0 {
		report.Warn(models.WarnEmptyTable, name, "", "", "table has no rows")
		return
	}

	res := b.registry.Resolve(table)
	if res.PKFallback {
		report.Warn(models.WarnNoPrimaryKey, name, res.PrimaryKey, "",
			"no primary key column resolved; using first column")
	}
	if !res.LabelResolved {
		report.Warn(models.WarnNoLabelColumn, name, "", "", "no label column resolved")
	}

	classURI := graph.ClassURI(name)

	for i, row := range table.Rows {
		report.RowsProcessed++

		pkValue := row.Text(res.PrimaryKey)
		if pkValue == "" {
			// Best-effort placeholder ID instead of aborting the build.
			pkValue = fmt.Sprintf("row_%d", i)
			report.Warn(models.WarnMissingColumn, name, res.PrimaryKey, pkValue,
				"row missing primary key value; using positional placeholder")
		}

		subject := graph.MintEntityURI(name, pkValue)
		store.Add(models.T(subject, graph.RDFType, classURI))

		if res.LabelColumn != "" {
			if label := row.Text(res.LabelColumn); label != "" {
				store.Add(models.TL(subject, graph.RDFSLabel, label))
			}
		}

		for _, col := range table.Columns {
			if col == res.PrimaryKey || col == res.LabelColumn {
				continue
			}
			value, ok := row[col]
			if !ok || value.IsEmpty() {
				continue
			}

			mapping, hasMapping := mappings[name+"."+col]
			if hasMapping || looksLikeForeignKey(col) {
				b.resolveRelation(store, report, tables, name, col, subject, row, value, mapping, hasMapping)
				continue
			}

			store.Add(models.Triple{
				Subject:   subject,
				Predicate: graph.RelationURI(col),
				Object:    models.Literal(value.Text()),
			})
		}

		b.enrichments.Apply(name, store, subject, row, report)
	}
}

// looksLikeForeignKey applies the naming heuristic for columns without an
// explicit relation mapping.
func looksLikeForeignKey(column string) bool {
	return strings.HasSuffix(strings.ToLower(column), "_id") || strings.HasSuffix(column, "ID")
}

// resolveRelation resolves one foreign-key cell to a target entity, falling
// back through value synonyms, virtual-entity synthesis, or silent skip.
func (b *GraphBuilder) resolveRelation(
	store *graph.Store,
	report *models.BuildReport,
	tables map[string]*models.Table,
	tableName, column, subject string,
	row models.Row,
	value models.Value,
	mapping models.RelationMapping,
	hasMapping bool,
) {
	targetTable := ""
	targetRelation := graph.RelationURI(column)

	if hasMapping {
		if mapping.Relation != "" {
			targetRelation = graph.Namespace + graph.SanitizeLocalName(mapping.Relation)
		}
		if mapping.Dynamic {
			// Dynamic dispatch: the discriminator column's value selects
			// the target table.
			disc := strings.ToLower(row.Text(mapping.DiscriminatorCol))
			resolved, ok := mapping.DiscriminatorMap[disc]
			if !ok {
				report.RelationsUnresolved++
				report.Warn(models.WarnUnresolvedFK, tableName, column, value.Text(),
					fmt.Sprintf("discriminator %q has no target table", disc))
				return
			}
			targetTable = resolved
		} else {
			targetTable = mapping.TgtTable
		}
	} else {
		// Heuristic mapping: "axis_id" targets the "axes"/"axiss" table if
		// one is loaded.
		base := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(column), "_id"), "id")
		base = strings.TrimSuffix(base, "_")
		targetTable = findTableForBase(tables, base)
		if targetTable == "" {
			report.RelationsUnresolved++
			report.Warn(models.WarnUnresolvedFK, tableName, column, value.Text(),
				"no target table matches foreign-key column name")
			return
		}
	}

	raw := value.Text()
	target, found := b.findTargetRow(tables, targetTable, mapping, hasMapping, raw)

	// Secondary value-mapping resolution for inferred/heuristic mappings:
	// canonicalize known synonym pairs before giving up.
	if !found && (!hasMapping || mapping.Origin != models.MappingOriginRegistry) {
		if alias, ok := synonymOf(raw); ok {
			target, found = b.findTargetRow(tables, targetTable, mapping, hasMapping, alias)
		}
	}

	if found {
		store.Add(models.T(subject, targetRelation, target))
		report.RelationsResolved++
		return
	}

	if b.VirtualEntities {
		virtualURI, created := b.virtualEntity(store, targetTable, raw)
		if created {
			report.VirtualEntitiesCreated++
		} else {
			report.VirtualEntityHits++
		}
		store.Add(models.T(subject, targetRelation, virtualURI))
		report.RelationsResolved++
		return
	}

	// Data-quality signal, not a failure.
	report.RelationsUnresolved++
	report.Warn(models.WarnUnresolvedFK, tableName, column, raw,
		fmt.Sprintf("no row in %q matches foreign-key value", targetTable))
}

// findTargetRow resolves a raw FK value against the target table's primary
// key (or the mapping's explicit target column) and returns the target URI.
func (b *GraphBuilder) findTargetRow(
	tables map[string]*models.Table,
	targetTable string,
	mapping models.RelationMapping,
	hasMapping bool,
	value string,
) (string, bool) {
	t, ok := tables[targetTable]
	if !ok || len(t.Rows) == 0 {
		return "", false
	}

	keyColumn := b.registry.Resolve(t).PrimaryKey
	if hasMapping && mapping.TgtCol != "" {
		keyColumn = mapping.TgtCol
	}

	for _, row := range t.Rows {
		if strings.EqualFold(row.Text(keyColumn), value) {
			return graph.MintEntityURI(targetTable, row.Text(b.registry.Resolve(t).PrimaryKey)), true
		}
	}
	return "", false
}

// virtualEntity synthesizes (at most once per target-type/value pair) a
// placeholder node for an unresolved foreign key.
func (b *GraphBuilder) virtualEntity(store *graph.Store, targetTable, value string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := targetTable + "\x00" + value
	if uri, ok := b.virtual[key]; ok {
		return uri, false
	}

	uri := graph.EntityNamespace + "virtual_" + graph.SanitizeLocalName(targetTable+"_"+value)
	b.virtual[key] = uri

	store.Add(models.T(uri, graph.RDFType, graph.ClassURI(targetTable)))
	store.Add(models.TL(uri, graph.RDFSLabel, value))
	store.Add(models.TL(uri, graph.PropIsVirtualEntity, "true"))
	store.Add(models.TL(uri, graph.PropVirtualEntitySource, targetTable))

	b.logger.Debug("Synthesized virtual entity",
		zap.String("target_table", targetTable),
		zap.String("value", value))
	return uri, true
}

// synonymOf returns the two-way vocabulary alias for a value.
func synonymOf(value string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := valueSynonyms[lower]; ok {
		return alias, true
	}
	for canonical, alias := range valueSynonyms {
		if alias == lower {
			return canonical, true
		}
	}
	return "", false
}

// findTableForBase matches a foreign-key column base name against loaded
// table names ("axis" -> "axes").
func findTableForBase(tables map[string]*models.Table, base string) string {
	if base == "" {
		return ""
	}
	candidates := []string{base, base + "s", base + "es"}
	if strings.HasSuffix(base, "is") {
		// axis -> axes
		candidates = append(candidates, strings.TrimSuffix(base, "is")+"es")
	}
	for _, c := range candidates {
		if _, ok := tables[c]; ok {
			return c
		}
	}
	return ""
}
