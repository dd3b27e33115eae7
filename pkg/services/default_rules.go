package services

import (
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Rule categories.
const (
	CategoryEngagement = "engagement"
	CategoryThreat     = "threat"
	CategoryLogistics  = "logistics"
)

// DefaultRules is the closed set of built-in domain rules.
func DefaultRules() []models.InferenceRule {
	return []models.InferenceRule{
		{
			ID:   "co-located-engagement",
			Name: "Units sharing a cell are engagement candidates",
			Condition: []models.TriplePattern{
				{Subject: "?u", Predicate: graph.RDFType, Object: graph.ClassUnit},
				{Subject: "?v", Predicate: graph.RDFType, Object: graph.ClassUnit},
				{Subject: "?u", Predicate: graph.PropLocatedInCell, Object: "?c"},
				{Subject: "?v", Predicate: graph.PropLocatedInCell, Object: "?c"},
			},
			Conclusion: models.TriplePattern{Subject: "?u", Predicate: graph.PropEngagementCandidate, Object: "?v"},
			Priority:   models.PriorityHigh,
			Category:   CategoryEngagement,
			Enabled:    true,
		},
		{
			ID:   "axis-threat-exposure",
			Name: "Units on a threatened axis are exposed to the threat",
			Condition: []models.TriplePattern{
				{Subject: "?u", Predicate: graph.PropHasAxis, Object: "?a"},
				{Subject: "?t", Predicate: graph.PropThreatens, Object: "?a"},
			},
			Conclusion: models.TriplePattern{Subject: "?u", Predicate: graph.PropExposedTo, Object: "?t"},
			Priority:   models.PriorityHigh,
			Category:   CategoryThreat,
			Enabled:    true,
		},
		{
			ID:   "depot-supply-point",
			Name: "A unit's depot location is its supply point",
			Condition: []models.TriplePattern{
				{Subject: "?u", Predicate: graph.PropSuppliedBy, Object: "?d"},
				{Subject: "?d", Predicate: graph.PropLocatedInCell, Object: "?c"},
			},
			Conclusion: models.TriplePattern{Subject: "?u", Predicate: graph.PropSupplyPoint, Object: "?c"},
			Priority:   models.PriorityLow,
			Category:   CategoryLogistics,
			Enabled:    true,
		},
		{
			ID:   "command-axis-inheritance",
			Name: "A commanded unit inherits its commander's axis",
			Condition: []models.TriplePattern{
				{Subject: "?c", Predicate: graph.PropCommands, Object: "?u"},
				{Subject: "?c", Predicate: graph.PropHasAxis, Object: "?a"},
			},
			Conclusion: models.TriplePattern{Subject: "?u", Predicate: graph.PropHasAxis, Object: "?a"},
			Priority:   models.PriorityMed,
			Category:   CategoryEngagement,
			Enabled:    true,
		},
	}
}
