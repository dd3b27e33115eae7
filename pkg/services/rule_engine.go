package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// RuleEngine evaluates the prioritized custom inference rules against a
// graph. It runs independently of the deductive reasoner.
type RuleEngine struct {
	rules  []models.InferenceRule
	logger *zap.Logger
}

// NewRuleEngine creates a rule engine. Rule identifiers must be unique;
// a duplicate ID keeps the first registration.
func NewRuleEngine(rules []models.InferenceRule, logger *zap.Logger) *RuleEngine {
	seen := make(map[string]bool, len(rules))
	deduped := make([]models.InferenceRule, 0, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			logger.Warn("Duplicate rule id, keeping first", zap.String("rule_id", r.ID))
			continue
		}
		seen[r.ID] = true
		deduped = append(deduped, r)
	}
	return &RuleEngine{
		rules:  deduped,
		logger: logger.Named("rule-engine"),
	}
}

// Rules returns all registered rules, disabled ones included. Disabled
// rules are excluded from execution but remain inspectable.
func (e *RuleEngine) Rules() []models.InferenceRule {
	out := make([]models.InferenceRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Execute evaluates enabled rules filtered by category and priority
// (empty filters match everything), sorted HIGH→MED→LOW, and returns the
// candidate triples each solution produced. A single rule's evaluation
// error is logged and skipped; it never aborts the batch.
func (e *RuleEngine) Execute(g *graph.Store, categories []string, priorities []string) (models.RuleStats, []models.Triple) {
	stats := models.RuleStats{ByCategory: make(map[string]models.CategoryStats)}

	selected := make([]models.InferenceRule, 0, len(e.rules))
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if len(categories) > 0 && !containsFold(categories, r.Category) {
			continue
		}
		if len(priorities) > 0 && !containsFold(priorities, r.Priority) {
			continue
		}
		selected = append(selected, r)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return models.PriorityRank(selected[i].Priority) < models.PriorityRank(selected[j].Priority)
	})

	var candidates []models.Triple
	for _, rule := range selected {
		produced, err := e.evaluate(g, rule)
		if err != nil {
			stats.RulesFailed++
			e.logger.Warn("Rule evaluation failed, skipping",
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			continue
		}
		stats.RulesExecuted++
		stats.TriplesInferred += len(produced)
		cat := stats.ByCategory[rule.Category]
		cat.RulesExecuted++
		cat.TriplesInferred += len(produced)
		stats.ByCategory[rule.Category] = cat
		candidates = append(candidates, produced...)
	}
	return stats, candidates
}

// ApplyToGraph inserts each candidate only if absent and returns the count
// actually added. Applying the same batch twice never grows the store.
func (e *RuleEngine) ApplyToGraph(g *graph.Store, candidates []models.Triple) int {
	added := 0
	for _, t := range candidates {
		if g.Contains(t) {
			continue
		}
		g.AddInferred(t)
		added++
	}
	return added
}

// evaluate matches the rule's condition patterns and binds the conclusion
// template for every solution.
func (e *RuleEngine) evaluate(g *graph.Store, rule models.InferenceRule) ([]models.Triple, error) {
	if len(rule.Condition) == 0 {
		return nil, fmt.Errorf("rule %s has no condition patterns", rule.ID)
	}

	solutions := matchPatterns(g, rule.Condition, map[string]models.Term{})

	var out []models.Triple
	for _, binding := range solutions {
		candidate, ok := bindConclusion(rule.Conclusion, binding)
		if !ok {
			// Conclusion binding fails closed: an unbound variable drops
			// the candidate.
			continue
		}
		// Reflexive conclusions (subject == object) are never emitted.
		if candidate.Object.IsIRI() && candidate.Subject == candidate.Object.Value {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

// matchPatterns evaluates a conjunction of patterns via backtracking,
// returning every consistent variable binding.
func matchPatterns(g *graph.Store, patterns []models.TriplePattern, binding map[string]models.Term) []map[string]models.Term {
	if len(patterns) == 0 {
		return []map[string]models.Term{cloneBinding(binding)}
	}

	head, rest := patterns[0], patterns[1:]
	subject, predicate, object := resolvePattern(head, binding)

	var solutions []map[string]models.Term
	for _, t := range g.MatchAll(subject, predicate, object) {
		extended := cloneBinding(binding)
		if !bindToken(extended, head.Subject, models.IRI(t.Subject)) {
			continue
		}
		if !bindToken(extended, head.Predicate, models.IRI(t.Predicate)) {
			continue
		}
		if !bindToken(extended, head.Object, t.Object) {
			continue
		}
		solutions = append(solutions, matchPatterns(g, rest, extended)...)
	}
	return solutions
}

// resolvePattern lowers a pattern to a store query given current bindings.
func resolvePattern(p models.TriplePattern, binding map[string]models.Term) (string, string, models.Term) {
	subject := graph.Any
	if term, ok := resolveToken(p.Subject, binding); ok {
		subject = term.Value
	}
	predicate := graph.Any
	if term, ok := resolveToken(p.Predicate, binding); ok {
		predicate = term.Value
	}
	object := graph.AnyTerm
	if term, ok := resolveToken(p.Object, binding); ok {
		object = term
	}
	return subject, predicate, object
}

// resolveToken returns the concrete term for a token: a bound variable's
// value, or the constant itself. Unbound variables return ok=false.
func resolveToken(token string, binding map[string]models.Term) (models.Term, bool) {
	if models.IsVariable(token) {
		term, ok := binding[token]
		return term, ok
	}
	return constantTerm(token), true
}

// constantTerm interprets a constant pattern token: quoted tokens are
// literals, anything else is an IRI.
func constantTerm(token string) models.Term {
	if strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) && len(token) >= 2 {
		return models.Literal(token[1 : len(token)-1])
	}
	return models.IRI(token)
}

// bindToken records a variable binding, rejecting conflicts with an
// existing binding. Constants were already matched by the store query.
func bindToken(binding map[string]models.Term, token string, value models.Term) bool {
	if !models.IsVariable(token) {
		return true
	}
	if existing, ok := binding[token]; ok {
		return existing == value
	}
	binding[token] = value
	return true
}

// bindConclusion instantiates the conclusion template. Every variable must
// be bound; the object keeps its bound term kind (IRI vs literal).
func bindConclusion(pattern models.TriplePattern, binding map[string]models.Term) (models.Triple, bool) {
	subject, ok := resolveToken(pattern.Subject, binding)
	if !ok || subject.IsLiteral() {
		return models.Triple{}, false
	}
	predicate, ok := resolveToken(pattern.Predicate, binding)
	if !ok || predicate.IsLiteral() {
		return models.Triple{}, false
	}
	object, ok := resolveToken(pattern.Object, binding)
	if !ok {
		return models.Triple{}, false
	}
	return models.Triple{
		Subject:   subject.Value,
		Predicate: predicate.Value,
		Object:    object,
	}, true
}

func cloneBinding(binding map[string]models.Term) map[string]models.Term {
	out := make(map[string]models.Term, len(binding))
	for k, v := range binding {
		out[k] = v
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
