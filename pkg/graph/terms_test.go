package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLocalName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "U1", "U1"},
		{"whitespace to underscore", "1st Battalion", "1st_Battalion"},
		{"reserved punctuation stripped", "a/b#c?d", "abcd"},
		{"surrounding space trimmed", "  U1  ", "U1"},
		{"mixed", "Task Force / North", "Task_Force__North"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLocalName(tt.input))
		})
	}
}

func TestMintEntityURIIsDeterministic(t *testing.T) {
	a := MintEntityURI("units", "U 1")
	b := MintEntityURI("units", "U 1")
	assert.Equal(t, a, b)
	assert.Equal(t, EntityNamespace+"units_U_1", a)

	// Different rows must not collide unless raw keys already collide.
	assert.NotEqual(t, MintEntityURI("units", "U1"), MintEntityURI("units", "U2"))
	assert.NotEqual(t, MintEntityURI("units", "U1"), MintEntityURI("axes", "U1"))
}

func TestClassURISingularizes(t *testing.T) {
	assert.Equal(t, Namespace+"Unit", ClassURI("units"))
	assert.Equal(t, Namespace+"Axis", ClassURI("axes"))
	assert.Equal(t, Namespace+"Threat", ClassURI("threats"))
}

func TestRelationURI(t *testing.T) {
	assert.Equal(t, Namespace+"hasAxis", RelationURI("axis_id"))
	assert.Equal(t, Namespace+"hasAxis", RelationURI("axis"))
	assert.Equal(t, Namespace+"hasSupplyDepot", RelationURI("supply_depot_id"))
	assert.Equal(t, Namespace+"relatedTo", RelationURI(""))
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "units_U1", LocalName(EntityNamespace+"units_U1"))
	assert.Equal(t, "Unit", LocalName(Namespace+"Unit"))
	assert.Equal(t, "bare", LocalName("bare"))
}

func TestIsOntologyTerm(t *testing.T) {
	assert.True(t, IsOntologyTerm(RDFType))
	assert.True(t, IsOntologyTerm(ClassUnit))
	assert.False(t, IsOntologyTerm(EntityNamespace+"units_U1"))
}
