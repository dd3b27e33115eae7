package models

import "fmt"

// TermKind discriminates the object position of a triple.
type TermKind string

const (
	TermIRI     TermKind = "iri"
	TermLiteral TermKind = "literal"
	TermBlank   TermKind = "bnode"
)

// Term is the object of a triple: an IRI, a typed literal, or a blank node.
// Terms are comparable value types so triples can be used as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literal datatype IRI, empty for plain strings and IRIs
}

// IRI returns an IRI term.
func IRI(value string) Term {
	return Term{Kind: TermIRI, Value: value}
}

// Literal returns a plain string literal term.
func Literal(value string) Term {
	return Term{Kind: TermLiteral, Value: value}
}

// TypedLiteral returns a literal term with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: TermLiteral, Value: value, Datatype: datatype}
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

func (t Term) String() string {
	if t.Kind == TermLiteral {
		return fmt.Sprintf("%q", t.Value)
	}
	return t.Value
}

// Origin marks how a triple entered the store.
type Origin string

const (
	OriginAsserted Origin = "asserted"
	OriginInferred Origin = "inferred"
)

// Triple is one (subject, predicate, object) fact. Subjects and predicates
// are always IRIs (or blank node ids for subjects); the object may be an IRI
// or a literal. Triples are value types and comparable.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// T is shorthand for building a triple with an IRI object.
func T(subject, predicate, object string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: IRI(object)}
}

// TL is shorthand for building a triple with a literal object.
func TL(subject, predicate, literal string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: Literal(literal)}
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s)-[%s]->(%s)", t.Subject, t.Predicate, t.Object)
}
