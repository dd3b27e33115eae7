package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

func TestAddIsIdempotent(t *testing.T) {
	s := NewStore()
	tr := models.T(EntityNamespace+"units_U1", PropHasAxis, EntityNamespace+"axes_A1")

	s.Add(tr)
	s.Add(tr)

	assert.Equal(t, 1, s.Size())
	assert.True(t, s.Contains(tr))
}

func TestAddKeepsOriginalOrigin(t *testing.T) {
	s := NewStore()
	tr := models.T("a", "p", "b")

	s.Add(tr)
	s.AddInferred(tr)

	origin, ok := s.Origin(tr)
	require.True(t, ok)
	assert.Equal(t, models.OriginAsserted, origin)
}

func TestRemove(t *testing.T) {
	s := NewStore()
	tr := models.T("a", "p", "b")
	s.Add(tr)

	s.Remove(tr)
	s.Remove(tr) // absent removal is a no-op

	assert.Equal(t, 0, s.Size())
	assert.False(t, s.Contains(tr))
	assert.Empty(t, s.MatchAll("a", Any, AnyTerm))
}

func TestPatternMatching(t *testing.T) {
	s := NewStore()
	s.Add(models.T("u1", PropHasAxis, "a1"))
	s.Add(models.T("u2", PropHasAxis, "a1"))
	s.Add(models.T("u1", RDFType, ClassUnit))
	s.Add(models.TL("u1", RDFSLabel, "1st Battalion"))

	tests := []struct {
		name      string
		subject   string
		predicate string
		object    models.Term
		want      int
	}{
		{"fully unbound", Any, Any, AnyTerm, 4},
		{"by subject", "u1", Any, AnyTerm, 3},
		{"by predicate", Any, PropHasAxis, AnyTerm, 2},
		{"by object", Any, Any, models.IRI("a1"), 2},
		{"subject and predicate", "u1", PropHasAxis, AnyTerm, 1},
		{"literal object", Any, Any, models.Literal("1st Battalion"), 1},
		{"no match", "u3", Any, AnyTerm, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.MatchAll(tt.subject, tt.predicate, tt.object)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestPatternIsLazy(t *testing.T) {
	s := NewStore()
	s.Add(models.T("u1", PropHasAxis, "a1"))
	s.Add(models.T("u2", PropHasAxis, "a1"))
	s.Add(models.T("u3", PropHasAxis, "a1"))

	seen := 0
	for range s.Pattern(Any, PropHasAxis, AnyTerm) {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.Add(models.T("a", "p", "b"))

	c := s.Clone()
	c.Add(models.T("c", "p", "d"))

	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 2, c.Size())
}

func TestAssertedOnlyExcludesInferred(t *testing.T) {
	s := NewStore()
	s.Add(models.T("a", "p", "b"))
	s.AddInferred(models.T("b", "p", "c"))

	base := s.AssertedOnly()

	assert.Equal(t, 1, base.Size())
	assert.True(t, base.Contains(models.T("a", "p", "b")))
	assert.Equal(t, 1, s.InferredCount())
}

func TestLiteralAndIRIObjectsAreDistinct(t *testing.T) {
	s := NewStore()
	s.Add(models.T("a", "p", "x"))
	s.Add(models.TL("a", "p", "x"))

	assert.Equal(t, 2, s.Size())
	assert.Len(t, s.MatchAll("a", "p", models.IRI("x")), 1)
	assert.Len(t, s.MatchAll("a", "p", models.Literal("x")), 1)
}
