package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// maxClosureIterations bounds the fixed-point loop. The rule fragment
// (hierarchy, transitivity, symmetry, inverse, chains) terminates on its
// own; the cap only guards against a pathological schema.
const maxClosureIterations = 64

// PropertyChain declares that First followed by Second implies Implies:
// (a First b), (b Second c) => (a Implies c).
type PropertyChain struct {
	First   string
	Second  string
	Implies string
}

// DefaultPropertyChains are the built-in chain axioms of the domain schema.
var DefaultPropertyChains = []PropertyChain{
	// A unit subordinate to a commander on an axis inherits the axis.
	{First: graph.PropSubordinateTo, Second: graph.PropHasAxis, Implies: graph.PropHasAxis},
	// A unit's depot location is the unit's supply point.
	{First: graph.PropSuppliedBy, Second: graph.PropLocatedInCell, Implies: graph.PropSupplyPoint},
}

// Reasoner computes the monotonic deductive closure of a triple set under
// the fixed rule vocabulary: class/property hierarchy, transitivity,
// symmetry, inverse properties, property chains, and functional-property
// merging.
type Reasoner struct {
	chains []PropertyChain
	logger *zap.Logger
}

// NewReasoner creates a reasoner with the default property-chain axioms.
func NewReasoner(logger *zap.Logger) *Reasoner {
	return &Reasoner{
		chains: DefaultPropertyChains,
		logger: logger.Named("reasoner"),
	}
}

// Close expands the graph to its fixed point. It operates on a clone: the
// input store is never mutated. A reasoning failure degrades gracefully -
// the original graph is returned unchanged and the failure is recorded in
// the stats, never raised.
func (r *Reasoner) Close(base *graph.Store, includeSubsumption bool) (result *graph.Store, stats models.ReasonerStats) {
	start := time.Now()
	stats.TriplesBefore = base.Size()

	defer func() {
		if rec := recover(); rec != nil {
			stats.Failed = true
			stats.Error = fmt.Sprint(rec)
			stats.TriplesAfter = stats.TriplesBefore
			stats.Elapsed = time.Since(start)
			result = base
			r.logger.Error("Reasoning failed, returning graph unchanged",
				zap.Any("panic", rec))
		}
	}()

	g := base.Clone()

	for iteration := 0; iteration < maxClosureIterations; iteration++ {
		added := 0
		if includeSubsumption {
			added += r.applySubsumption(g)
		}
		added += r.applyTransitivity(g)
		added += r.applySymmetry(g)
		added += r.applyInverse(g)
		added += r.applyChains(g)
		added += r.applyFunctional(g)

		stats.Iterations = iteration + 1
		if added == 0 {
			break
		}
	}

	stats.TriplesAfter = g.Size()
	stats.Elapsed = time.Since(start)
	r.logger.Info("Closure completed",
		zap.Int("triples_before", stats.TriplesBefore),
		zap.Int("triples_after", stats.TriplesAfter),
		zap.Int("iterations", stats.Iterations),
		zap.Duration("elapsed", stats.Elapsed))
	return g, stats
}

// addInferred inserts the triple if absent and reports whether it was new.
func addInferred(g *graph.Store, t models.Triple) int {
	if g.Contains(t) {
		return 0
	}
	g.AddInferred(t)
	return 1
}

// applySubsumption propagates class and property hierarchies:
// subClassOf transitivity, type inheritance, subPropertyOf transitivity,
// and property inheritance.
func (r *Reasoner) applySubsumption(g *graph.Store) int {
	added := 0

	// subClassOf is transitive.
	for _, sc := range g.MatchAll(graph.Any, graph.RDFSSubClassOf, graph.AnyTerm) {
		for _, upper := range g.MatchAll(sc.Object.Value, graph.RDFSSubClassOf, graph.AnyTerm) {
			added += addInferred(g, models.T(sc.Subject, graph.RDFSSubClassOf, upper.Object.Value))
		}
		// Instances of the subclass are instances of the superclass.
		for _, inst := range g.MatchAll(graph.Any, graph.RDFType, models.IRI(sc.Subject)) {
			added += addInferred(g, models.T(inst.Subject, graph.RDFType, sc.Object.Value))
		}
	}

	// subPropertyOf is transitive, and statements propagate upward.
	for _, sp := range g.MatchAll(graph.Any, graph.RDFSSubPropertyOf, graph.AnyTerm) {
		for _, upper := range g.MatchAll(sp.Object.Value, graph.RDFSSubPropertyOf, graph.AnyTerm) {
			added += addInferred(g, models.T(sp.Subject, graph.RDFSSubPropertyOf, upper.Object.Value))
		}
		for _, stmt := range g.MatchAll(graph.Any, sp.Subject, graph.AnyTerm) {
			added += addInferred(g, models.Triple{
				Subject:   stmt.Subject,
				Predicate: sp.Object.Value,
				Object:    stmt.Object,
			})
		}
	}

	return added
}

// applyTransitivity chains every property declared owl:TransitiveProperty.
func (r *Reasoner) applyTransitivity(g *graph.Store) int {
	added := 0
	for _, decl := range g.MatchAll(graph.Any, graph.RDFType, models.IRI(graph.OWLTransitiveProperty)) {
		p := decl.Subject
		for _, ab := range g.MatchAll(graph.Any, p, graph.AnyTerm) {
			if !ab.Object.IsIRI() {
				continue
			}
			for _, bc := range g.MatchAll(ab.Object.Value, p, graph.AnyTerm) {
				if !bc.Object.IsIRI() || bc.Object.Value == ab.Subject {
					continue
				}
				added += addInferred(g, models.T(ab.Subject, p, bc.Object.Value))
			}
		}
	}
	return added
}

// applySymmetry mirrors every property declared owl:SymmetricProperty.
func (r *Reasoner) applySymmetry(g *graph.Store) int {
	added := 0
	for _, decl := range g.MatchAll(graph.Any, graph.RDFType, models.IRI(graph.OWLSymmetricProperty)) {
		p := decl.Subject
		for _, ab := range g.MatchAll(graph.Any, p, graph.AnyTerm) {
			if !ab.Object.IsIRI() {
				continue
			}
			added += addInferred(g, models.T(ab.Object.Value, p, ab.Subject))
		}
	}
	return added
}

// applyInverse mirrors statements across owl:inverseOf declarations, in
// both directions.
func (r *Reasoner) applyInverse(g *graph.Store) int {
	added := 0
	for _, decl := range g.MatchAll(graph.Any, graph.OWLInverseOf, graph.AnyTerm) {
		p, q := decl.Subject, decl.Object.Value
		for _, ab := range g.MatchAll(graph.Any, p, graph.AnyTerm) {
			if ab.Object.IsIRI() {
				added += addInferred(g, models.T(ab.Object.Value, q, ab.Subject))
			}
		}
		for _, ab := range g.MatchAll(graph.Any, q, graph.AnyTerm) {
			if ab.Object.IsIRI() {
				added += addInferred(g, models.T(ab.Object.Value, p, ab.Subject))
			}
		}
	}
	return added
}

// applyChains composes the declared property-chain axioms.
func (r *Reasoner) applyChains(g *graph.Store) int {
	added := 0
	for _, chain := range r.chains {
		for _, ab := range g.MatchAll(graph.Any, chain.First, graph.AnyTerm) {
			if !ab.Object.IsIRI() {
				continue
			}
			for _, bc := range g.MatchAll(ab.Object.Value, chain.Second, graph.AnyTerm) {
				if !bc.Object.IsIRI() {
					continue
				}
				added += addInferred(g, models.T(ab.Subject, chain.Implies, bc.Object.Value))
			}
		}
	}
	return added
}

// applyFunctional emits owl:sameAs for distinct objects of a functional
// property on the same subject. Nodes are not rewritten; identity stays an
// explicit, queryable fact.
func (r *Reasoner) applyFunctional(g *graph.Store) int {
	added := 0
	for _, decl := range g.MatchAll(graph.Any, graph.RDFType, models.IRI(graph.OWLFunctionalProperty)) {
		p := decl.Subject
		bySubject := make(map[string][]string)
		for _, stmt := range g.MatchAll(graph.Any, p, graph.AnyTerm) {
			if stmt.Object.IsIRI() {
				bySubject[stmt.Subject] = append(bySubject[stmt.Subject], stmt.Object.Value)
			}
		}
		for _, objects := range bySubject {
			for i := 0; i < len(objects); i++ {
				for j := i + 1; j < len(objects); j++ {
					if objects[i] == objects[j] {
						continue
					}
					added += addInferred(g, models.T(objects[i], graph.OWLSameAs, objects[j]))
					added += addInferred(g, models.T(objects[j], graph.OWLSameAs, objects[i]))
				}
			}
		}
	}
	return added
}
