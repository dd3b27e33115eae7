package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// graphCacheKey holds the single serialized reasoned view. Entries carry no
// TTL; a rebuild replaces the entry under the new source hash.
const graphCacheKey = "opsgraph:graph"

// GraphCache stores one serialized reasoned view keyed by source content
// hash, so a restart with unchanged inputs can skip the build pipeline.
type GraphCache interface {
	// Store replaces the cached view with the given graph.
	Store(ctx context.Context, sourceHash string, g *graph.Store) error

	// Load returns the cached graph when its source hash matches.
	// Returns apperrors.ErrNotFound on an absent or stale entry.
	Load(ctx context.Context, sourceHash string) (*graph.Store, error)
}

type redisGraphCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisGraphCache creates a redis-backed graph cache.
func NewRedisGraphCache(client *redis.Client, logger *zap.Logger) GraphCache {
	return &redisGraphCache{client: client, logger: logger.Named("graph_cache")}
}

var _ GraphCache = (*redisGraphCache)(nil)

func (c *redisGraphCache) Store(ctx context.Context, sourceHash string, g *graph.Store) error {
	payload, err := encodeGraph(sourceHash, g)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	if err := c.client.Set(ctx, graphCacheKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store graph cache entry: %w", err)
	}
	c.logger.Debug("Graph cache entry stored",
		zap.String("source_hash", sourceHash[:12]),
		zap.Int("bytes", len(payload)))
	return nil
}

func (c *redisGraphCache) Load(ctx context.Context, sourceHash string) (*graph.Store, error) {
	payload, err := c.client.Get(ctx, graphCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read graph cache entry: %w", err)
	}
	return decodeGraph(payload, sourceHash)
}

type cachedTriple struct {
	Subject   string        `json:"s"`
	Predicate string        `json:"p"`
	Object    models.Term   `json:"o"`
	Origin    models.Origin `json:"origin"`
}

type cachedGraph struct {
	SourceHash string         `json:"source_hash"`
	Triples    []cachedTriple `json:"triples"`
}

// encodeGraph serializes a graph with per-triple provenance under the
// source hash of the tables it was built from.
func encodeGraph(sourceHash string, g *graph.Store) ([]byte, error) {
	entry := cachedGraph{
		SourceHash: sourceHash,
		Triples:    make([]cachedTriple, 0, g.Size()),
	}
	for t, origin := range g.All() {
		entry.Triples = append(entry.Triples, cachedTriple{
			Subject:   t.Subject,
			Predicate: t.Predicate,
			Object:    t.Object,
			Origin:    origin,
		})
	}
	return json.Marshal(entry)
}

// decodeGraph rebuilds a store from a serialized entry. An entry stored
// under a different source hash is a miss, not an error.
func decodeGraph(payload []byte, sourceHash string) (*graph.Store, error) {
	var entry cachedGraph
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode graph cache entry: %w", err)
	}
	if entry.SourceHash != sourceHash {
		return nil, fmt.Errorf("%w: cached graph has a different source hash", apperrors.ErrNotFound)
	}
	g := graph.NewStore()
	for _, ct := range entry.Triples {
		g.AddWithOrigin(models.Triple{
			Subject:   ct.Subject,
			Predicate: ct.Predicate,
			Object:    ct.Object,
		}, ct.Origin)
	}
	return g, nil
}
