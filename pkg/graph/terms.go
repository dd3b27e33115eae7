package graph

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// Characters stripped from local names: URI-reserved punctuation that would
// otherwise leak row values into the URI structure.
const reservedPunctuation = "#?/\\:%<>\"{}|^`[]"

// SanitizeLocalName turns a raw identifier fragment into a URI-safe local
// name: whitespace becomes underscores, reserved punctuation is dropped.
// The transform is deterministic; identical input always yields identical
// output.
func SanitizeLocalName(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case strings.ContainsRune(reservedPunctuation, r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MintEntityURI mints the stable URI for one source row:
// {EntityNamespace}{table}_{primary-key-value}, sanitized.
func MintEntityURI(table, pkValue string) string {
	return EntityNamespace + SanitizeLocalName(table+"_"+pkValue)
}

// ClassURI mints the class URI for a table. Table names are singularized so
// that a "units" table yields the Unit class.
func ClassURI(table string) string {
	singular := inflection.Singular(strings.TrimSpace(table))
	return Namespace + SanitizeLocalName(titleCase(singular))
}

// titleCase upper-cases the first rune only; table and column names are
// ASCII identifiers, not natural language.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RelationURI mints a camel-cased property URI from a relation name or a
// source column name ("axis_id" -> hasAxis).
func RelationURI(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), "_id")
	name = strings.TrimSuffix(name, "ID")
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	if len(parts) == 0 {
		return Namespace + "relatedTo"
	}
	var b strings.Builder
	b.WriteString("has")
	for _, p := range parts {
		b.WriteString(titleCase(strings.ToLower(p)))
	}
	return Namespace + SanitizeLocalName(b.String())
}

// LocalName returns the fragment of a URI after the last '#' or '/'.
func LocalName(uri string) string {
	if i := strings.LastIndexAny(uri, "#/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// IsOntologyTerm reports whether a URI belongs to the rdf/rdfs/owl or
// engine ontology namespaces rather than to entity space. Used to filter
// structurally generic nodes out of shared-context results.
func IsOntologyTerm(uri string) bool {
	return strings.HasPrefix(uri, "http://www.w3.org/") || strings.HasPrefix(uri, Namespace)
}
