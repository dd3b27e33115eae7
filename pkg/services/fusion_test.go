package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/vector"
)

type stubOracle struct {
	snippets []vector.Snippet
	err      error
}

func (o stubOracle) Retrieve(_ context.Context, _ string, _ int) ([]vector.Snippet, error) {
	return o.snippets, o.err
}

func fusionTestGraph() *graph.Store {
	g := graph.NewStore()
	alpha := graph.MintEntityURI("units", "U1")
	axis := graph.MintEntityURI("axes", "A1")
	g.Add(models.T(alpha, graph.RDFType, graph.ClassUnit))
	g.Add(models.TL(alpha, graph.RDFSLabel, "alpha company"))
	g.Add(models.T(alpha, graph.PropHasAxis, axis))
	g.Add(models.TL(axis, graph.RDFSLabel, "axis north"))
	return g
}

func newFusionSearcher(oracle vector.Oracle, records tabular.RecordStore) *FusionSearcher {
	return NewFusionSearcher(NewPatternQueryService(zap.NewNop()), oracle, records, 10, zap.NewNop())
}

func TestSearchFusesScores(t *testing.T) {
	oracle := stubOracle{snippets: []vector.Snippet{
		{Text: "alpha company moving along the northern avenue", Score: 0.9},
	}}
	s := newFusionSearcher(oracle, nil)

	results := s.Search(context.Background(), fusionTestGraph(), "where is alpha company axis", 0)

	require.NotEmpty(t, results)
	for _, r := range results {
		if r.Source != models.ResultSourceVector {
			continue
		}
		assert.Equal(t, graph.MintEntityURI("units", "U1"), r.Entity)
		assert.InDelta(t,
			fusionWeightSimilarity*r.SimilarityScore+fusionWeightGraph*r.GraphScore,
			r.Score, 1e-9)
	}
}

func TestSearchAbsorbsOracleFailure(t *testing.T) {
	s := newFusionSearcher(stubOracle{err: errors.New("index offline")}, nil)

	// The graph still answers through the pattern stage.
	g := fusionTestGraph()
	brigade := graph.MintEntityURI("units", "U9")
	g.Add(models.T(graph.MintEntityURI("units", "U1"), graph.PropSubordinateTo, brigade))

	results := s.Search(context.Background(), g, "who is the superior of alpha company?", 0)

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, models.ResultSourceVector, r.Source)
	}
}

func TestSearchDeduplicatesByEntity(t *testing.T) {
	oracle := stubOracle{snippets: []vector.Snippet{
		{Text: "alpha company sighted near the river", Score: 0.9},
		{Text: "alpha company resupplied at dawn", Score: 0.7},
	}}
	s := newFusionSearcher(oracle, nil)

	results := s.Search(context.Background(), fusionTestGraph(), "alpha company", 0)

	entities := make(map[string]int)
	for _, r := range results {
		if r.Entity != "" {
			entities[r.Entity]++
		}
	}
	for entity, n := range entities {
		assert.Equal(t, 1, n, "entity %s appears %d times", entity, n)
	}
}

func TestSearchTruncatesToTopK(t *testing.T) {
	snippets := make([]vector.Snippet, 8)
	for i := range snippets {
		snippets[i] = vector.Snippet{Text: "unattributed report", Score: 0.5}
	}
	s := newFusionSearcher(stubOracle{snippets: snippets}, nil)

	results := s.Search(context.Background(), fusionTestGraph(), "report", 3)
	assert.Len(t, results, 3)
}

func TestSearchRecordLookup(t *testing.T) {
	records := tabular.NewMemoryLoader().AddTable(&models.Table{
		Name:    "unit_status",
		Columns: []string{"unit_id", "readiness"},
		Rows: []models.Row{{
			"unit_id":   models.StringValue("U1"),
			"readiness": models.StringValue("green"),
		}},
	})
	s := newFusionSearcher(nil, records)

	results := s.Search(context.Background(), fusionTestGraph(), "current status of our forces", 0)

	require.NotEmpty(t, results)
	found := false
	for _, r := range results {
		if r.Source == models.ResultSourceRecord {
			found = true
			assert.Contains(t, r.Text, "unit_status")
			assert.Contains(t, r.Text, "readiness=green")
		}
	}
	assert.True(t, found)
}

func TestSearchRanksPatternResultsFirst(t *testing.T) {
	g := fusionTestGraph()
	brigade := graph.MintEntityURI("units", "U9")
	g.Add(models.T(graph.MintEntityURI("units", "U1"), graph.PropSubordinateTo, brigade))

	oracle := stubOracle{snippets: []vector.Snippet{
		{Text: "an unrelated field report", Score: 0.3},
	}}
	s := newFusionSearcher(oracle, nil)

	results := s.Search(context.Background(), g, "who is the superior of alpha company?", 0)

	require.NotEmpty(t, results)
	assert.Equal(t, models.ResultSourcePattern, results[0].Source)
	// 0.6*0.95 + 0.4*1.0 for the structured answer.
	assert.InDelta(t, 0.97, results[0].Score, 0.001)
}

func TestExpandQueryAddsSynonyms(t *testing.T) {
	expanded := expandQuery("which unit holds the axis?")
	assert.Contains(t, expanded, "battalion")
	assert.Contains(t, expanded, "corridor")

	assert.Equal(t, "plain question", expandQuery("plain question"))
}

func TestQueryKeywordsDropShortTokens(t *testing.T) {
	keywords := queryKeywords("Who is ON the axis?")
	assert.Equal(t, []string{"who", "the", "axis"}, keywords)
}
