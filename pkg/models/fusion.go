package models

// FusedResult source kinds.
const (
	ResultSourceVector  = "vector"
	ResultSourcePattern = "pattern_query"
	ResultSourceRecord  = "record_lookup"
)

// FusedResult is one entry in the final ranked answer list, combining
// vector-similarity and graph-derived relevance.
type FusedResult struct {
	// Entity is the graph entity backing this result ("" when the snippet
	// mentions no known entity).
	Entity string `json:"entity,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source"`

	SimilarityScore float64 `json:"similarity_score"`
	GraphScore      float64 `json:"graph_score"`
	// Score is the fused rank: 0.6*similarity + 0.4*graph for snippet-backed
	// results, 0.4*graph for graph-only results.
	Score float64 `json:"score"`
}
