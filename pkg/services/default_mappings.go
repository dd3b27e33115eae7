package services

import "github.com/opsgraph-ai/opsgraph-engine/pkg/models"

// DefaultMappings is the built-in relation registry for the standard source
// tables. The legacy mapping file and the name-pattern heuristic cover
// anything not listed here.
func DefaultMappings() []models.RelationMapping {
	return []models.RelationMapping{
		{
			SrcTable:   "units",
			SrcCol:     "axis_id",
			TgtTable:   "axes",
			Relation:   "hasAxis",
			Confidence: 1.0,
		},
		{
			SrcTable:   "units",
			SrcCol:     "cell_id",
			TgtTable:   "cells",
			Relation:   "locatedInCell",
			Confidence: 1.0,
		},
		{
			SrcTable:   "units",
			SrcCol:     "superior_id",
			TgtTable:   "units",
			Relation:   "subordinateTo",
			Confidence: 1.0,
		},
		{
			SrcTable:   "units",
			SrcCol:     "depot_id",
			TgtTable:   "depots",
			Relation:   "suppliedBy",
			Confidence: 1.0,
		},
		{
			// The threatened target lives in a different table per row; the
			// target_type column selects it.
			SrcTable:         "threats",
			SrcCol:           "target_id",
			Relation:         "threatens",
			Dynamic:          true,
			DiscriminatorCol: "target_type",
			DiscriminatorMap: map[string]string{
				"unit": "units",
				"axis": "axes",
				"cell": "cells",
			},
			Confidence: 1.0,
		},
	}
}
