package models

import "strings"

// Rule priorities, in execution order.
const (
	PriorityHigh = "HIGH"
	PriorityMed  = "MED"
	PriorityLow  = "LOW"
)

// PriorityRank returns the sort rank of a priority (HIGH first).
// Unknown priorities sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMed:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// TriplePattern is one condition or conclusion pattern. Tokens beginning
// with '?' are variables; anything else is a constant. Constant objects are
// matched as IRIs unless quoted, in which case they match literals.
type TriplePattern struct {
	Subject   string `yaml:"subject"`
	Predicate string `yaml:"predicate"`
	Object    string `yaml:"object"`
}

// IsVariable reports whether a pattern token is a variable reference.
func IsVariable(token string) bool {
	return strings.HasPrefix(token, "?")
}

// InferenceRule is a named, prioritized pattern→conclusion transformation
// evaluated by the custom rule engine.
type InferenceRule struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Condition  []TriplePattern `yaml:"condition"`
	Conclusion TriplePattern   `yaml:"conclusion"`
	Priority   string          `yaml:"priority"`
	Category   string          `yaml:"category"`
	Enabled    bool            `yaml:"enabled"`
}

// RuleStats aggregates rule execution results per category.
type RuleStats struct {
	RulesExecuted   int
	RulesFailed     int
	TriplesInferred int
	ByCategory      map[string]CategoryStats
}

// CategoryStats is the per-category slice of RuleStats.
type CategoryStats struct {
	RulesExecuted   int
	TriplesInferred int
}
