package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/vector"
)

// Fusion weights: similarity dominates when textual backing exists,
// graph relevance carries graph-only results alone.
const (
	fusionWeightSimilarity = 0.6
	fusionWeightGraph      = 0.4
)

// patternQueryScore is the synthetic similarity assigned to rows produced
// by a matched pattern-query template: high-confidence structured answers.
const patternQueryScore = 0.95

// querySynonyms expands query keywords before vector retrieval. The table
// is fixed domain vocabulary, not open-ended.
var querySynonyms = map[string][]string{
	"unit":     {"battalion", "company", "force"},
	"axis":     {"avenue", "route", "corridor"},
	"threat":   {"enemy", "hostile", "danger"},
	"supply":   {"logistics", "depot", "resupply"},
	"cell":     {"sector", "grid", "area"},
	"superior": {"commander", "parent", "higher"},
}

// recordLookups maps intent keywords to structured-record tables consulted
// during fusion.
var recordLookups = map[string]string{
	"status":    "unit_status",
	"readiness": "unit_status",
	"weather":   "weather_reports",
}

// FusionSearcher merges graph-derived relevance with vector-similarity
// relevance into one ranked list.
type FusionSearcher struct {
	patterns *PatternQueryService
	oracle   vector.Oracle
	records  tabular.RecordStore
	topK     int
	logger   *zap.Logger
}

// NewFusionSearcher creates a fusion searcher. oracle and records may be
// nil; their contributions are then omitted and scores renormalize over
// what remains.
func NewFusionSearcher(patterns *PatternQueryService, oracle vector.Oracle, records tabular.RecordStore, topK int, logger *zap.Logger) *FusionSearcher {
	return &FusionSearcher{
		patterns: patterns,
		oracle:   oracle,
		records:  records,
		topK:     topK,
		logger:   logger.Named("fusion"),
	}
}

// Search answers a free-text query against the reasoned graph, the vector
// oracle, and the structured-record store. Collaborator failures are
// absorbed: the affected contribution is omitted, never raised.
func (s *FusionSearcher) Search(ctx context.Context, g *graph.Store, query string, topK int) []models.FusedResult {
	if topK <= 0 {
		topK = s.topK
	}
	keywords := queryKeywords(query)

	var pool []models.FusedResult

	// Stage 1: pattern-query templates for recognized question shapes.
	if name, rows, ok := s.patterns.DetectIntent(g, query); ok {
		for _, t := range rows {
			entity := t.Subject
			// Templates that answer with the object (e.g. superior unit)
			// surface the object entity instead.
			if t.Object.IsIRI() && strings.Contains(strings.ToLower(query), strings.ToLower(labelOrLocal(g, t.Subject))) {
				entity = t.Object.Value
			}
			pool = append(pool, models.FusedResult{
				Entity:          entity,
				Text:            describeTriple(g, t),
				Source:          models.ResultSourcePattern,
				SimilarityScore: patternQueryScore,
				GraphScore:      1.0,
			})
		}
		s.logger.Debug("Pattern query contributed",
			zap.String("template", name),
			zap.Int("rows", len(rows)))
	}

	// Stage 2: vector retrieval over the keyword-expanded query.
	if s.oracle != nil {
		snippets, err := s.oracle.Retrieve(ctx, expandQuery(query), topK*2)
		if err != nil {
			s.logger.Warn("Vector oracle unavailable, omitting contribution", zap.Error(err))
		} else {
			for _, sn := range snippets {
				entity := s.entityMentionedIn(g, sn.Text)
				pool = append(pool, models.FusedResult{
					Entity:          entity,
					Text:            sn.Text,
					Source:          models.ResultSourceVector,
					SimilarityScore: sn.Score,
					GraphScore:      s.graphRelevance(g, entity, keywords),
				})
			}
		}
	}

	// Stage 3: keyword-triggered structured-record lookups.
	if s.records != nil {
		for keyword, table := range recordLookups {
			if !strings.Contains(strings.ToLower(query), keyword) {
				continue
			}
			rows, err := s.records.LoadTable(ctx, table)
			if err != nil {
				s.logger.Warn("Record lookup unavailable, omitting contribution",
					zap.String("table", table),
					zap.Error(err))
				continue
			}
			for _, row := range rows {
				text := describeRow(table, row)
				pool = append(pool, models.FusedResult{
					Text:            text,
					Source:          models.ResultSourceRecord,
					SimilarityScore: patternQueryScore,
					GraphScore:      0,
				})
			}
		}
	}

	return rankAndTruncate(pool, topK)
}

// rankAndTruncate fuses scores, deduplicates by underlying entity, and
// returns the top-K.
func rankAndTruncate(pool []models.FusedResult, topK int) []models.FusedResult {
	for i := range pool {
		r := &pool[i]
		if r.SimilarityScore > 0 {
			r.Score = fusionWeightSimilarity*r.SimilarityScore + fusionWeightGraph*r.GraphScore
		} else {
			r.Score = fusionWeightGraph * r.GraphScore
		}
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })

	seen := make(map[string]bool)
	out := make([]models.FusedResult, 0, topK)
	for _, r := range pool {
		if r.Entity != "" {
			if seen[r.Entity] {
				continue
			}
			seen[r.Entity] = true
		}
		out = append(out, r)
		if len(out) >= topK {
			break
		}
	}
	return out
}

// graphRelevance scores an entity's 1-hop neighborhood against the query
// keywords: the fraction of keywords appearing among the entity's own and
// neighboring labels.
func (s *FusionSearcher) graphRelevance(g *graph.Store, entity string, keywords []string) float64 {
	if entity == "" || len(keywords) == 0 {
		return 0
	}

	var neighborhood strings.Builder
	neighborhood.WriteString(strings.ToLower(graph.LocalName(entity)))
	for _, t := range g.MatchAll(entity, graph.Any, graph.AnyTerm) {
		neighborhood.WriteByte(' ')
		if t.Object.IsLiteral() {
			neighborhood.WriteString(strings.ToLower(t.Object.Value))
		} else {
			neighborhood.WriteString(strings.ToLower(graph.LocalName(t.Object.Value)))
		}
	}
	for _, t := range g.MatchAll(graph.Any, graph.Any, models.IRI(entity)) {
		neighborhood.WriteByte(' ')
		neighborhood.WriteString(strings.ToLower(graph.LocalName(t.Subject)))
	}

	text := neighborhood.String()
	hits := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// entityMentionedIn finds a graph entity whose label occurs in the snippet
// text, preferring the longest label.
func (s *FusionSearcher) entityMentionedIn(g *graph.Store, text string) string {
	lower := strings.ToLower(text)
	best, bestLen := "", 0
	for _, t := range g.MatchAll(graph.Any, graph.RDFSLabel, graph.AnyTerm) {
		label := strings.ToLower(t.Object.Value)
		if len(label) > bestLen && label != "" && strings.Contains(lower, label) {
			best, bestLen = t.Subject, len(label)
		}
	}
	return best
}

// expandQuery appends fixed-vocabulary synonyms for every recognized
// keyword.
func expandQuery(query string) string {
	lower := strings.ToLower(query)
	expanded := query
	for keyword, synonyms := range querySynonyms {
		if strings.Contains(lower, keyword) {
			expanded += " " + strings.Join(synonyms, " ")
		}
	}
	return expanded
}

// queryKeywords tokenizes the query into lowercase keywords, dropping
// short stopword-ish tokens.
func queryKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?.,!\"'")
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// describeTriple renders a pattern-query row as a synthetic snippet.
func describeTriple(g *graph.Store, t models.Triple) string {
	obj := t.Object.Value
	if t.Object.IsIRI() {
		obj = labelOrLocal(g, t.Object.Value)
	}
	return fmt.Sprintf("%s %s %s",
		labelOrLocal(g, t.Subject), graph.LocalName(t.Predicate), obj)
}

// describeRow renders a structured record as a synthetic snippet.
func describeRow(table string, row models.Row) string {
	parts := make([]string, 0, len(row))
	for col, v := range row {
		if v.IsEmpty() {
			continue
		}
		parts = append(parts, col+"="+v.Text())
	}
	sort.Strings(parts)
	return table + ": " + strings.Join(parts, " ")
}

// labelOrLocal returns the entity's label, falling back to its local name.
func labelOrLocal(g *graph.Store, uri string) string {
	for _, t := range g.MatchAll(uri, graph.RDFSLabel, graph.AnyTerm) {
		if t.Object.IsLiteral() && t.Object.Value != "" {
			return t.Object.Value
		}
	}
	return graph.LocalName(uri)
}
