package models

import (
	"time"

	"github.com/google/uuid"
)

// Persisted snapshot view names. Exactly these three views exist; the
// reasoned view's triple count is always >= the instances view's.
const (
	ViewSchema    = "schema"
	ViewInstances = "instances"
	ViewReasoned  = "reasoned"
)

// GraphSnapshot describes one named view of the triple set.
type GraphSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	TripleCount int       `json:"triple_count"`
	SourceHash  string    `json:"source_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReasonerStats reports one closure run. A failed run leaves the input graph
// unchanged and records the error here instead of raising it.
type ReasonerStats struct {
	TriplesBefore int           `json:"triples_before"`
	TriplesAfter  int           `json:"triples_after"`
	Iterations    int           `json:"iterations"`
	Elapsed       time.Duration `json:"elapsed"`
	Failed        bool          `json:"failed"`
	Error         string        `json:"error,omitempty"`
}

// Inferred returns the number of triples the closure added.
func (s ReasonerStats) Inferred() int {
	return s.TriplesAfter - s.TriplesBefore
}
