package models

// Build warning codes. Data-quality conditions degrade to warnings and never
// abort a build.
const (
	WarnNoPrimaryKey    = "no_primary_key"
	WarnNoLabelColumn   = "no_label_column"
	WarnUnresolvedFK    = "unresolved_fk"
	WarnMissingColumn   = "missing_column"
	WarnEmptyTable      = "empty_table"
	WarnEnrichmentError = "enrichment_error"
)

// BuildWarning is one recoverable data-quality condition found during a build.
type BuildWarning struct {
	Code    string `json:"code"`
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	RowKey  string `json:"row_key,omitempty"`
	Message string `json:"message"`
}

// BuildReport aggregates the outcome of one graph build cycle.
type BuildReport struct {
	TablesProcessed        int            `json:"tables_processed"`
	RowsProcessed          int            `json:"rows_processed"`
	TriplesEmitted         int            `json:"triples_emitted"`
	RelationsResolved      int            `json:"relations_resolved"`
	RelationsUnresolved    int            `json:"relations_unresolved"`
	VirtualEntitiesCreated int            `json:"virtual_entities_created"`
	VirtualEntityHits      int            `json:"virtual_entity_hits"`
	Warnings               []BuildWarning `json:"warnings"`
}

// Warn appends a warning to the report.
func (r *BuildReport) Warn(code, table, column, rowKey, message string) {
	r.Warnings = append(r.Warnings, BuildWarning{
		Code:    code,
		Table:   table,
		Column:  column,
		RowKey:  rowKey,
		Message: message,
	})
}
