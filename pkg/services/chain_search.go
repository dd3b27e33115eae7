package services

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Path score weights: inverse depth, inverse path length, and a semantics
// bonus for meaningful predicates. The sum is clamped to [0,1].
const (
	scoreWeightDepth  = 0.4
	scoreWeightLength = 0.3
	scoreWeightBonus  = 0.3
)

// meaningfulRelations earn the predicate-semantics bonus during scoring.
var meaningfulRelations = map[string]bool{
	graph.PropHasAxis:             true,
	graph.PropSubordinateTo:       true,
	graph.PropCommands:            true,
	graph.PropThreatens:           true,
	graph.PropExposedTo:           true,
	graph.PropSuppliedBy:          true,
	graph.PropEngagementCandidate: true,
	graph.PropEmploysUnit:         true,
}

// edge is one traversal step; incoming edges are walked too.
type edge struct {
	predicate string
	other     string
	outgoing  bool
}

// ChainSearcher discovers and scores relationship chains between entities.
type ChainSearcher struct {
	maxDepth  int
	maxChains int
	logger    *zap.Logger
}

// NewChainSearcher creates a chain searcher with the given hop-depth and
// result ceilings.
func NewChainSearcher(maxDepth, maxChains int, logger *zap.Logger) *ChainSearcher {
	return &ChainSearcher{
		maxDepth:  maxDepth,
		maxChains: maxChains,
		logger:    logger.Named("chain-search"),
	}
}

// FindTyped explores outward from start until nodes of the requested type
// are reached or the depth ceiling is hit, returning the top-N paths by
// score.
func (s *ChainSearcher) FindTyped(g *graph.Store, start, targetType string, maxDepth int) ([]models.Chain, error) {
	if err := s.checkDepth(&maxDepth); err != nil {
		return nil, err
	}

	var chains []models.Chain
	s.walk(g, start, maxDepth, func(c models.Chain) bool {
		if g.Contains(models.T(c.End(), graph.RDFType, targetType)) && c.Depth > 0 {
			chains = append(chains, c)
		}
		return len(chains) < s.maxChains
	})

	s.score(chains)
	sort.SliceStable(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })
	return chains, nil
}

// FindBetween returns all paths from start to a specific target within the
// depth ceiling. The target matches by exact URI or, as a fallback, by
// local-name containment to tolerate URI-scheme drift.
func (s *ChainSearcher) FindBetween(g *graph.Store, start, target string, maxDepth int) ([]models.Chain, error) {
	if err := s.checkDepth(&maxDepth); err != nil {
		return nil, err
	}

	targetLocal := strings.ToLower(graph.LocalName(target))
	matches := func(uri string) bool {
		if uri == target {
			return true
		}
		return targetLocal != "" && strings.Contains(strings.ToLower(graph.LocalName(uri)), targetLocal)
	}

	var chains []models.Chain
	s.walk(g, start, maxDepth, func(c models.Chain) bool {
		if c.Depth > 0 && matches(c.End()) {
			chains = append(chains, c)
		}
		return len(chains) < s.maxChains
	})

	s.score(chains)
	sort.SliceStable(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })
	return chains, nil
}

// FindSharedContext intersects the 1-hop neighborhoods of two entities.
// Each shared neighbor becomes a 2-hop chain from a to b through it.
// Structurally generic shared nodes (classes, ontology metadata) are
// dropped.
func (s *ChainSearcher) FindSharedContext(g *graph.Store, a, b string) []models.Chain {
	neighborsA := s.neighbors(g, a)
	neighborsB := s.neighbors(g, b)

	byURI := make(map[string]edge, len(neighborsB))
	byLocal := make(map[string]edge, len(neighborsB))
	for _, e := range neighborsB {
		byURI[e.other] = e
		byLocal[strings.ToLower(graph.LocalName(e.other))] = e
	}

	var chains []models.Chain
	seen := make(map[string]bool)
	for _, ea := range neighborsA {
		if graph.IsOntologyTerm(ea.other) || ea.other == b {
			continue
		}
		eb, shared := byURI[ea.other]
		if !shared {
			// Local-name intersection catches URI-scheme drift between
			// independently minted node sets.
			eb, shared = byLocal[strings.ToLower(graph.LocalName(ea.other))]
		}
		if !shared || seen[ea.other] {
			continue
		}
		seen[ea.other] = true
		chains = append(chains, models.Chain{
			Nodes:      []string{a, ea.other, b},
			Predicates: []string{ea.predicate, eb.predicate},
			Depth:      2,
		})
		if len(chains) >= s.maxChains {
			break
		}
	}

	s.score(chains)
	sort.SliceStable(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })
	return chains
}

// walk runs a breadth-first traversal over both edge directions, invoking
// visit for every discovered path. visit returns false to stop the search.
// A node already on the current path is never revisited (chains stay
// acyclic), but separate paths may reach the same node.
func (s *ChainSearcher) walk(g *graph.Store, start string, maxDepth int, visit func(models.Chain) bool) {
	queue := []models.Chain{{Nodes: []string{start}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !visit(current) {
			return
		}
		if current.Depth >= maxDepth {
			continue
		}

		for _, e := range s.neighbors(g, current.End()) {
			if current.ContainsNode(e.other) {
				continue
			}
			next := models.Chain{
				Nodes:      append(append([]string{}, current.Nodes...), e.other),
				Predicates: append(append([]string{}, current.Predicates...), e.predicate),
				Depth:      current.Depth + 1,
			}
			queue = append(queue, next)
		}
	}
}

// neighbors returns the entity's outgoing and incoming IRI edges. Literal
// objects and type/label statements are not traversable.
func (s *ChainSearcher) neighbors(g *graph.Store, uri string) []edge {
	var out []edge
	for _, t := range g.MatchAll(uri, graph.Any, graph.AnyTerm) {
		if !t.Object.IsIRI() || t.Predicate == graph.RDFType {
			continue
		}
		out = append(out, edge{predicate: t.Predicate, other: t.Object.Value, outgoing: true})
	}
	for _, t := range g.MatchAll(graph.Any, graph.Any, models.IRI(uri)) {
		if t.Predicate == graph.RDFType {
			continue
		}
		out = append(out, edge{predicate: t.Predicate, other: t.Subject, outgoing: false})
	}
	return out
}

// score computes each chain's weighted score, clamped to [0,1].
func (s *ChainSearcher) score(chains []models.Chain) {
	for i := range chains {
		c := &chains[i]
		if c.Depth == 0 {
			continue
		}
		score := scoreWeightDepth/float64(c.Depth) + scoreWeightLength/float64(len(c.Nodes))
		for _, p := range c.Predicates {
			if meaningfulRelations[p] {
				score += scoreWeightBonus / float64(len(c.Predicates))
			}
		}
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		c.Score = score
	}
}

func (s *ChainSearcher) checkDepth(maxDepth *int) error {
	if *maxDepth < 0 {
		return apperrors.ErrInvalidDepth
	}
	if *maxDepth == 0 || *maxDepth > s.maxDepth {
		*maxDepth = s.maxDepth
	}
	return nil
}
