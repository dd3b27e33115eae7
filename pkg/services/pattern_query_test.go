package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

func patternTestGraph() *graph.Store {
	g := graph.NewStore()

	alpha := graph.MintEntityURI("units", "U1")
	brigade := graph.MintEntityURI("units", "U9")
	g.Add(models.T(alpha, graph.RDFType, graph.ClassUnit))
	g.Add(models.TL(alpha, graph.RDFSLabel, "alpha company"))
	g.Add(models.T(brigade, graph.RDFType, graph.ClassUnit))
	g.Add(models.TL(brigade, graph.RDFSLabel, "9th brigade"))
	g.Add(models.T(alpha, graph.PropSubordinateTo, brigade))

	axis := graph.MintEntityURI("axes", "A1")
	g.Add(models.TL(axis, graph.RDFSLabel, "axis north"))
	g.Add(models.T(alpha, graph.PropHasAxis, axis))

	threat := graph.MintEntityURI("threats", "T1")
	severity := graph.Namespace + "Severity_high"
	g.Add(models.T(threat, graph.RDFType, graph.ClassThreat))
	g.Add(models.T(threat, graph.PropHasSeverity, severity))

	return g
}

func TestExecuteGenericPattern(t *testing.T) {
	g := patternTestGraph()
	s := NewPatternQueryService(zap.NewNop())

	rows := s.Execute(g, graph.Any, graph.RDFType, models.IRI(graph.ClassUnit))
	assert.Len(t, rows, 2)

	rows = s.Execute(g, graph.MintEntityURI("units", "U1"), graph.Any, graph.AnyTerm)
	assert.Len(t, rows, 4)
}

func TestExecuteTemplate(t *testing.T) {
	g := patternTestGraph()
	s := NewPatternQueryService(zap.NewNop())

	rows, err := s.ExecuteTemplate(g, TemplateSuperiorUnit, graph.MintEntityURI("units", "U1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, graph.MintEntityURI("units", "U9"), rows[0].Object.Value)

	rows, err = s.ExecuteTemplate(g, TemplateHighSeverity, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, graph.MintEntityURI("threats", "T1"), rows[0].Subject)
}

func TestExecuteTemplateErrors(t *testing.T) {
	g := patternTestGraph()
	s := NewPatternQueryService(zap.NewNop())

	_, err := s.ExecuteTemplate(g, "no_such_template", "")
	assert.ErrorIs(t, err, apperrors.ErrUnknownTemplate)

	_, err = s.ExecuteTemplate(g, TemplateSuperiorUnit, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDetectIntent(t *testing.T) {
	g := patternTestGraph()
	s := NewPatternQueryService(zap.NewNop())

	name, rows, ok := s.DetectIntent(g, "who is the superior of alpha company?")
	require.True(t, ok)
	assert.Equal(t, TemplateSuperiorUnit, name)
	require.Len(t, rows, 1)
	assert.Equal(t, graph.MintEntityURI("units", "U9"), rows[0].Object.Value)

	name, rows, ok = s.DetectIntent(g, "which units are on axis north?")
	require.True(t, ok)
	assert.Equal(t, TemplateUnitsOnAxis, name)
	require.Len(t, rows, 1)
	assert.Equal(t, graph.MintEntityURI("units", "U1"), rows[0].Subject)

	name, _, ok = s.DetectIntent(g, "list high severity threats")
	require.True(t, ok)
	assert.Equal(t, TemplateHighSeverity, name)
}

func TestDetectIntentNoMatch(t *testing.T) {
	g := patternTestGraph()
	s := NewPatternQueryService(zap.NewNop())

	// No template keywords at all.
	_, _, ok := s.DetectIntent(g, "tell me about the weather")
	assert.False(t, ok)

	// Keyword present but no entity mentioned: the template is skipped.
	_, _, ok = s.DetectIntent(g, "who is the superior here?")
	assert.False(t, ok)

	// Keyword and entity present but the pattern yields nothing.
	_, _, ok = s.DetectIntent(g, "who is the superior of 9th brigade?")
	assert.False(t, ok)
}
