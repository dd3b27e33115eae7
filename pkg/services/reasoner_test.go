package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

func TestCloseTransitivity(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T(graph.PropSubordinateTo, graph.RDFType, graph.OWLTransitiveProperty))
	g.Add(models.T("u1", graph.PropSubordinateTo, "u2"))
	g.Add(models.T("u2", graph.PropSubordinateTo, "u3"))
	g.Add(models.T("u3", graph.PropSubordinateTo, "u4"))

	r := NewReasoner(zap.NewNop())
	result, stats := r.Close(g, false)

	require.False(t, stats.Failed)
	assert.True(t, result.Contains(models.T("u1", graph.PropSubordinateTo, "u3")))
	assert.True(t, result.Contains(models.T("u1", graph.PropSubordinateTo, "u4")))
	assert.True(t, result.Contains(models.T("u2", graph.PropSubordinateTo, "u4")))

	// The inferred triples carry inferred origin.
	origin, ok := result.Origin(models.T("u1", graph.PropSubordinateTo, "u4"))
	require.True(t, ok)
	assert.Equal(t, models.OriginInferred, origin)
}

func TestCloseSymmetry(t *testing.T) {
	adjacentTo := graph.Namespace + "adjacentTo"
	g := graph.NewStore()
	g.Add(models.T(adjacentTo, graph.RDFType, graph.OWLSymmetricProperty))
	g.Add(models.T("c1", adjacentTo, "c2"))

	r := NewReasoner(zap.NewNop())
	result, _ := r.Close(g, false)

	assert.True(t, result.Contains(models.T("c2", adjacentTo, "c1")))
}

func TestCloseInverse(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T(graph.PropCommands, graph.OWLInverseOf, graph.PropSubordinateTo))
	g.Add(models.T("hq", graph.PropCommands, "u1"))
	g.Add(models.T("u2", graph.PropSubordinateTo, "hq"))

	r := NewReasoner(zap.NewNop())
	result, _ := r.Close(g, false)

	assert.True(t, result.Contains(models.T("u1", graph.PropSubordinateTo, "hq")))
	assert.True(t, result.Contains(models.T("hq", graph.PropCommands, "u2")))
}

func TestCloseSubsumption(t *testing.T) {
	infantry := graph.Namespace + "InfantryUnit"
	g := graph.NewStore()
	g.Add(models.T(infantry, graph.RDFSSubClassOf, graph.ClassUnit))
	g.Add(models.T("u1", graph.RDFType, infantry))

	r := NewReasoner(zap.NewNop())

	withSubsumption, _ := r.Close(g, true)
	assert.True(t, withSubsumption.Contains(models.T("u1", graph.RDFType, graph.ClassUnit)))

	withoutSubsumption, _ := r.Close(g, false)
	assert.False(t, withoutSubsumption.Contains(models.T("u1", graph.RDFType, graph.ClassUnit)))
}

func TestCloseSubPropertyPropagation(t *testing.T) {
	directlyCommands := graph.Namespace + "directlyCommands"
	g := graph.NewStore()
	g.Add(models.T(directlyCommands, graph.RDFSSubPropertyOf, graph.PropCommands))
	g.Add(models.T("hq", directlyCommands, "u1"))

	r := NewReasoner(zap.NewNop())
	result, _ := r.Close(g, true)

	assert.True(t, result.Contains(models.T("hq", graph.PropCommands, "u1")))
}

func TestClosePropertyChains(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T("u1", graph.PropSubordinateTo, "hq"))
	g.Add(models.T("hq", graph.PropHasAxis, "a1"))
	g.Add(models.T("u1", graph.PropSuppliedBy, "d1"))
	g.Add(models.T("d1", graph.PropLocatedInCell, "c1"))

	r := NewReasoner(zap.NewNop())
	result, _ := r.Close(g, false)

	assert.True(t, result.Contains(models.T("u1", graph.PropHasAxis, "a1")))
	assert.True(t, result.Contains(models.T("u1", graph.PropSupplyPoint, "c1")))
}

func TestCloseFunctionalEmitsSameAs(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T(graph.PropHasAxis, graph.RDFType, graph.OWLFunctionalProperty))
	g.Add(models.T("u1", graph.PropHasAxis, "a1"))
	g.Add(models.T("u1", graph.PropHasAxis, "a1_dup"))

	r := NewReasoner(zap.NewNop())
	result, _ := r.Close(g, false)

	// Identity is emitted in both directions, nodes are never rewritten.
	assert.True(t, result.Contains(models.T("a1", graph.OWLSameAs, "a1_dup")))
	assert.True(t, result.Contains(models.T("a1_dup", graph.OWLSameAs, "a1")))
	assert.True(t, result.Contains(models.T("u1", graph.PropHasAxis, "a1")))
	assert.True(t, result.Contains(models.T("u1", graph.PropHasAxis, "a1_dup")))
}

func TestCloseReachesFixedPoint(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T(graph.PropSubordinateTo, graph.RDFType, graph.OWLTransitiveProperty))
	g.Add(models.T("u1", graph.PropSubordinateTo, "u2"))
	g.Add(models.T("u2", graph.PropSubordinateTo, "u3"))
	g.Add(models.T("u1", graph.PropHasAxis, "a1"))

	r := NewReasoner(zap.NewNop())
	once, stats := r.Close(g, true)
	require.False(t, stats.Failed)
	assert.Less(t, stats.Iterations, maxClosureIterations)

	// Closing an already closed graph adds nothing.
	twice, again := r.Close(once, true)
	assert.Equal(t, once.Size(), twice.Size())
	assert.Equal(t, 0, again.Inferred())
}

func TestCloseDoesNotMutateInput(t *testing.T) {
	g := graph.NewStore()
	g.Add(models.T(graph.PropSubordinateTo, graph.RDFType, graph.OWLTransitiveProperty))
	g.Add(models.T("u1", graph.PropSubordinateTo, "u2"))
	g.Add(models.T("u2", graph.PropSubordinateTo, "u3"))
	before := g.Size()

	r := NewReasoner(zap.NewNop())
	result, stats := r.Close(g, true)

	assert.Equal(t, before, g.Size())
	assert.Greater(t, result.Size(), before)
	assert.Equal(t, result.Size()-before, stats.Inferred())
}
