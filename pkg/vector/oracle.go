// Package vector defines the similarity oracle consumed during result
// fusion. The embedding and index implementation lives outside the engine;
// from here it is a black box that returns scored snippets.
package vector

import "context"

// Snippet is one scored retrieval result.
type Snippet struct {
	Text     string
	Score    float64
	Metadata map[string]string
}

// Oracle retrieves the top-K snippets most similar to a query.
type Oracle interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// NoopOracle returns no snippets. Used when no vector index is configured;
// fusion then ranks on graph relevance alone.
type NoopOracle struct{}

// Retrieve always returns an empty result.
func (NoopOracle) Retrieve(_ context.Context, _ string, _ int) ([]Snippet, error) {
	return nil, nil
}

var _ Oracle = NoopOracle{}
