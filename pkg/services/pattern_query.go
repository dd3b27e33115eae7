package services

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Named pattern-query templates.
const (
	TemplateSuperiorUnit = "superior_unit"
	TemplateUnitsOnAxis  = "units_on_axis"
	TemplateHighSeverity = "high_severity_threats"
)

// queryTemplate binds one recognized question shape to a graph pattern.
type queryTemplate struct {
	name string
	// keywords trigger the template during intent detection; all listed
	// keywords must appear in the query.
	keywords []string
	// needsEntity marks templates parameterized by an entity from the query.
	needsEntity bool
	run         func(g *graph.Store, entity string) []models.Triple
}

// PatternQueryService answers declarative pattern queries over the triple
// store: a generic bound/unbound template plus named templates for common
// question shapes.
type PatternQueryService struct {
	templates []queryTemplate
	logger    *zap.Logger
}

// NewPatternQueryService creates the service with the built-in templates.
func NewPatternQueryService(logger *zap.Logger) *PatternQueryService {
	s := &PatternQueryService{logger: logger.Named("pattern-query")}
	s.templates = []queryTemplate{
		{
			name:        TemplateSuperiorUnit,
			keywords:    []string{"superior"},
			needsEntity: true,
			run: func(g *graph.Store, entity string) []models.Triple {
				return g.MatchAll(entity, graph.PropSubordinateTo, graph.AnyTerm)
			},
		},
		{
			name:        TemplateUnitsOnAxis,
			keywords:    []string{"axis"},
			needsEntity: true,
			run: func(g *graph.Store, entity string) []models.Triple {
				return g.MatchAll(graph.Any, graph.PropHasAxis, models.IRI(entity))
			},
		},
		{
			name:     TemplateHighSeverity,
			keywords: []string{"high", "threat"},
			run: func(g *graph.Store, _ string) []models.Triple {
				severity := graph.Namespace + "Severity_high"
				return g.MatchAll(graph.Any, graph.PropHasSeverity, models.IRI(severity))
			},
		},
	}
	return s
}

// Execute answers a generic triple-pattern query. Empty subject/predicate
// and the zero object term are unbound.
func (s *PatternQueryService) Execute(g *graph.Store, subject, predicate string, object models.Term) []models.Triple {
	return g.MatchAll(subject, predicate, object)
}

// ExecuteTemplate runs a named template. The entity parameter may be empty
// for templates that take none.
func (s *PatternQueryService) ExecuteTemplate(g *graph.Store, name, entity string) ([]models.Triple, error) {
	for _, tpl := range s.templates {
		if tpl.name == name {
			if tpl.needsEntity && entity == "" {
				return nil, apperrors.ErrNotFound
			}
			return tpl.run(g, entity), nil
		}
	}
	return nil, apperrors.ErrUnknownTemplate
}

// DetectIntent matches a free-text query against the template keyword sets
// and resolves the entity parameter by label lookup. A query matching no
// template returns ok=false; the caller falls through to vector search.
func (s *PatternQueryService) DetectIntent(g *graph.Store, query string) (name string, results []models.Triple, ok bool) {
	lower := strings.ToLower(query)

	for _, tpl := range s.templates {
		if !allKeywordsPresent(lower, tpl.keywords) {
			continue
		}
		entity := ""
		if tpl.needsEntity {
			entity = s.findEntityInQuery(g, lower)
			if entity == "" {
				continue
			}
		}
		rows := tpl.run(g, entity)
		if len(rows) == 0 {
			continue
		}
		s.logger.Debug("Pattern template matched",
			zap.String("template", tpl.name),
			zap.Int("rows", len(rows)))
		return tpl.name, rows, true
	}
	return "", nil, false
}

// findEntityInQuery scans entity labels and local names for a mention in
// the query, preferring the longest match.
func (s *PatternQueryService) findEntityInQuery(g *graph.Store, lowerQuery string) string {
	type candidate struct {
		uri   string
		match int
	}
	var candidates []candidate

	for _, t := range g.MatchAll(graph.Any, graph.RDFSLabel, graph.AnyTerm) {
		label := strings.ToLower(t.Object.Value)
		if label != "" && strings.Contains(lowerQuery, label) {
			candidates = append(candidates, candidate{uri: t.Subject, match: len(label)})
		}
	}
	for _, subj := range g.Subjects() {
		local := strings.ToLower(graph.LocalName(subj))
		if local != "" && strings.Contains(lowerQuery, local) {
			candidates = append(candidates, candidate{uri: subj, match: len(local)})
		}
	}

	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match != candidates[j].match {
			return candidates[i].match > candidates[j].match
		}
		return candidates[i].uri < candidates[j].uri
	})
	return candidates[0].uri
}

func allKeywordsPresent(lowerQuery string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(lowerQuery, k) {
			return false
		}
	}
	return true
}
