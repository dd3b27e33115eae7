// Package graph provides the in-memory triple store and the URI vocabulary
// of the opsgraph ontology.
package graph

// Namespace is the base IRI prefix for ontology terms (classes, properties).
const Namespace = "http://opsgraph.ai/ontology#"

// EntityNamespace is the base IRI prefix for entity instances minted from
// source rows.
const EntityNamespace = "http://opsgraph.ai/entity/"

// Standard vocabulary used by the deductive reasoner.
const (
	RDFType           = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSLabel         = "http://www.w3.org/2000/01/rdf-schema#label"
	RDFSSubClassOf    = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	RDFSSubPropertyOf = "http://www.w3.org/2000/01/rdf-schema#subPropertyOf"
	RDFSClass         = "http://www.w3.org/2000/01/rdf-schema#Class"

	OWLTransitiveProperty = "http://www.w3.org/2002/07/owl#TransitiveProperty"
	OWLSymmetricProperty  = "http://www.w3.org/2002/07/owl#SymmetricProperty"
	OWLFunctionalProperty = "http://www.w3.org/2002/07/owl#FunctionalProperty"
	OWLInverseOf          = "http://www.w3.org/2002/07/owl#inverseOf"
	OWLSameAs             = "http://www.w3.org/2002/07/owl#sameAs"
)

// Engine-internal annotation properties.
const (
	PropIsVirtualEntity     = Namespace + "isVirtualEntity"
	PropVirtualEntitySource = Namespace + "virtualEntitySource"
)

// Domain properties referenced by built-in rules, templates, and scoring.
const (
	PropHasAxis             = Namespace + "hasAxis"
	PropLocatedInCell       = Namespace + "locatedInCell"
	PropSubordinateTo       = Namespace + "subordinateTo"
	PropCommands            = Namespace + "commands"
	PropThreatens           = Namespace + "threatens"
	PropExposedTo           = Namespace + "exposedTo"
	PropSuppliedBy          = Namespace + "suppliedBy"
	PropSupplyPoint         = Namespace + "supplyPoint"
	PropEngagementCandidate = Namespace + "engagementCandidate"
	PropHasSeverity         = Namespace + "hasSeverity"
	PropEmploysUnit         = Namespace + "employsUnit"
)

// Domain classes.
const (
	ClassUnit   = Namespace + "Unit"
	ClassAxis   = Namespace + "Axis"
	ClassCell   = Namespace + "Cell"
	ClassThreat = Namespace + "Threat"
	ClassCOA    = Namespace + "COA"
	ClassDepot  = Namespace + "Depot"
)
