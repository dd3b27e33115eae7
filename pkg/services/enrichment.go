package services

import (
	"strings"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// EnrichmentFunc is one bespoke per-table post-processing step. It receives
// the minted subject URI and the source row, and emits extra triples into
// the store. Failures are reported through the build report, never raised.
type EnrichmentFunc func(store *graph.Store, subject string, row models.Row, report *models.BuildReport)

// EnrichmentRegistry maps table names to their enrichment steps. The set is
// closed: enrichments are registered at construction, not discovered.
type EnrichmentRegistry struct {
	byTable map[string][]EnrichmentFunc
}

// NewEnrichmentRegistry returns a registry preloaded with the built-in
// table enrichments.
func NewEnrichmentRegistry() *EnrichmentRegistry {
	r := &EnrichmentRegistry{byTable: make(map[string][]EnrichmentFunc)}
	r.Register("coas", coaUnitListEnrichment)
	r.Register("threats", threatSeverityEnrichment)
	return r
}

// Register adds an enrichment step for a table.
func (r *EnrichmentRegistry) Register(table string, fn EnrichmentFunc) {
	r.byTable[table] = append(r.byTable[table], fn)
}

// Apply runs every enrichment registered for the table.
func (r *EnrichmentRegistry) Apply(table string, store *graph.Store, subject string, row models.Row, report *models.BuildReport) {
	for _, fn := range r.byTable[table] {
		fn(store, subject, row, report)
	}
}

// coaUnitListEnrichment splits the COA table's delimited units field into
// one employsUnit relation per entry. Concept nodes are created lazily on
// first reference.
func coaUnitListEnrichment(store *graph.Store, subject string, row models.Row, report *models.BuildReport) {
	raw := row.Text("units")
	if raw == "" {
		return
	}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		unit := graph.MintEntityURI("units", part)
		if !store.Contains(models.T(unit, graph.RDFType, graph.ClassUnit)) {
			store.Add(models.T(unit, graph.RDFType, graph.ClassUnit))
			store.Add(models.TL(unit, graph.RDFSLabel, part))
		}
		store.Add(models.T(subject, graph.PropEmploysUnit, unit))
	}
}

// threatSeverityEnrichment lifts the threat table's severity literal into a
// relation to a shared severity concept node, so severity can be traversed
// and pattern-queried like any other edge.
func threatSeverityEnrichment(store *graph.Store, subject string, row models.Row, report *models.BuildReport) {
	severity := strings.ToLower(strings.TrimSpace(row.Text("severity")))
	if severity == "" {
		return
	}
	concept := graph.Namespace + "Severity_" + graph.SanitizeLocalName(severity)
	if !store.Contains(models.T(concept, graph.RDFType, graph.RDFSClass)) {
		store.Add(models.T(concept, graph.RDFType, graph.RDFSClass))
		store.Add(models.TL(concept, graph.RDFSLabel, severity))
	}
	store.Add(models.T(subject, graph.PropHasSeverity, concept))
}
