package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/graph"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/repositories"
)

// Engine owns the build cycle and the derived views. Exactly one rebuild
// runs at a time; readers always see the last completed snapshot
// (copy-on-rebuild, never in-place mutation).
type Engine struct {
	loader       tabular.TableLoader
	builder      *GraphBuilder
	reasoner     *Reasoner
	rules        *RuleEngine
	snapshotRepo repositories.SnapshotRepository // nil: no persistence
	cache        GraphCache                      // nil: no graph cache
	mappings     []MappingSource
	logger       *zap.Logger

	rebuildMu sync.Mutex // serializes rebuilds

	mu          sync.RWMutex // guards the published views below
	base        *graph.Store
	reasoned    *graph.Store
	sourceHash  string
	lastReport  *models.BuildReport
	lastStats   models.ReasonerStats
	statusCache map[string][]models.Row
}

// NewEngine creates the engine. snapshotRepo and cache may be nil.
func NewEngine(
	loader tabular.TableLoader,
	builder *GraphBuilder,
	reasoner *Reasoner,
	rules *RuleEngine,
	snapshotRepo repositories.SnapshotRepository,
	cache GraphCache,
	mappings []MappingSource,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		loader:       loader,
		builder:      builder,
		reasoner:     reasoner,
		rules:        rules,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		mappings:     mappings,
		logger:       logger.Named("engine"),
		base:         graph.NewStore(),
		reasoned:     graph.NewStore(),
		statusCache:  make(map[string][]models.Row),
	}
}

// Rebuild loads the tables, rebuilds the base graph, runs the closure and
// the custom rules, and atomically swaps the published views. Concurrent
// calls queue behind the in-flight rebuild.
func (e *Engine) Rebuild(ctx context.Context) (*models.GraphSnapshot, *models.BuildReport, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	tables, err := e.loader.LoadAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tables: %w", err)
	}

	hash := contentHash(tables)
	merged := MergeMappings(e.logger, e.mappings...)

	base, report, err := e.builder.Build(tables, merged)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build graph: %w", err)
	}

	reasoned, stats := e.reasoner.Close(base, true)
	ruleStats, candidates := e.rules.Execute(reasoned, nil, nil)
	applied := e.rules.ApplyToGraph(reasoned, candidates)

	e.logger.Info("Derived views computed",
		zap.String("source_hash", hash[:12]),
		zap.Int("base_triples", base.Size()),
		zap.Int("reasoned_triples", reasoned.Size()),
		zap.Int("closure_inferred", stats.Inferred()),
		zap.Int("rules_executed", ruleStats.RulesExecuted),
		zap.Int("rule_triples_applied", applied))

	// Publish: swap all views at once; invalidate derived caches.
	e.mu.Lock()
	e.base = base
	e.reasoned = reasoned
	e.sourceHash = hash
	e.lastReport = report
	e.lastStats = stats
	e.mu.Unlock()

	e.storeCached(ctx, hash, reasoned)

	snapshot := &models.GraphSnapshot{
		Name:        models.ViewReasoned,
		TripleCount: reasoned.Size(),
		SourceHash:  hash,
		CreatedAt:   time.Now().UTC(),
	}

	if e.snapshotRepo != nil {
		if err := e.persistViews(ctx, hash); err != nil {
			// Persistence is best-effort; the in-memory views stay valid.
			e.logger.Warn("Failed to persist snapshot views", zap.Error(err))
		}
	}

	return snapshot, report, nil
}

// Reasoned returns the current reasoned view. The returned store is the
// published snapshot; callers must not mutate it.
func (e *Engine) Reasoned() *graph.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reasoned
}

// Base returns the current asserted-only view.
func (e *Engine) Base() *graph.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.base
}

// SourceHash returns the content hash of the tables behind the current
// views (empty before the first build or restore).
func (e *Engine) SourceHash() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sourceHash
}

// LastReport returns the most recent build report (nil before first build).
func (e *Engine) LastReport() *models.BuildReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastReport
}

// LastReasonerStats returns the most recent closure stats.
func (e *Engine) LastReasonerStats() models.ReasonerStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStats
}

// Snapshot describes one of the three named views of the current graph.
func (e *Engine) Snapshot(name string) (*models.GraphSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	store, err := e.viewLocked(name)
	if err != nil {
		return nil, err
	}
	return &models.GraphSnapshot{
		Name:        name,
		TripleCount: store.Size(),
		SourceHash:  e.sourceHash,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// View returns a named view of the current graph. Schema and instance
// views never contain inferred triples.
func (e *Engine) View(name string) (*graph.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewLocked(name)
}

func (e *Engine) viewLocked(name string) (*graph.Store, error) {
	switch name {
	case models.ViewSchema:
		return schemaOnly(e.base), nil
	case models.ViewInstances:
		return e.base.AssertedOnly(), nil
	case models.ViewReasoned:
		return e.reasoned, nil
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, name)
}

// RefreshStatus updates the narrow status cache for a status-only table
// without touching the graph.
func (e *Engine) RefreshStatus(ctx context.Context, table string, rows []models.Row) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusCache[table] = rows
	e.logger.Debug("Status cache refreshed",
		zap.String("table", table),
		zap.Int("rows", len(rows)))
}

// Status returns the cached status rows for a table.
func (e *Engine) Status(table string) []models.Row {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.statusCache[table]
}

// persistViews stores the three named views. The reasoned view keeps
// per-triple provenance so a restart can tell asserted from inferred
// without re-running the closure.
func (e *Engine) persistViews(ctx context.Context, hash string) error {
	views := []string{models.ViewSchema, models.ViewInstances, models.ViewReasoned}
	for _, name := range views {
		store, err := e.View(name)
		if err != nil {
			return err
		}
		records := make([]repositories.TripleRecord, 0, store.Size())
		for t, origin := range store.All() {
			records = append(records, repositories.TripleRecord{Triple: t, Origin: origin})
		}
		if _, err := e.snapshotRepo.SaveView(ctx, name, hash, records); err != nil {
			return fmt.Errorf("failed to save %s view: %w", name, err)
		}
	}
	return nil
}

// Restore publishes the most recent stored reasoned view when its source
// hash matches the current tables, skipping the build pipeline. The graph
// cache is consulted first, then the snapshot repository. Returns
// apperrors.ErrNotFound when neither holds a matching view.
func (e *Engine) Restore(ctx context.Context) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	tables, err := e.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}
	hash := contentHash(tables)

	reasoned, source := e.loadStored(ctx, hash)
	if reasoned == nil {
		return fmt.Errorf("%w: no stored view matches source hash %s", apperrors.ErrNotFound, hash[:12])
	}

	e.mu.Lock()
	e.base = reasoned.AssertedOnly()
	e.reasoned = reasoned
	e.sourceHash = hash
	e.mu.Unlock()

	e.logger.Info("Graph restored without rebuild",
		zap.String("source", source),
		zap.String("source_hash", hash[:12]),
		zap.Int("triples", reasoned.Size()),
		zap.Int("inferred", reasoned.InferredCount()))
	return nil
}

// loadStored finds a reasoned view for the given source hash in the cache
// or the snapshot repository. Both lookups are best-effort.
func (e *Engine) loadStored(ctx context.Context, hash string) (*graph.Store, string) {
	if e.cache != nil {
		g, err := e.cache.Load(ctx, hash)
		if err == nil {
			return g, "cache"
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.logger.Warn("Graph cache read failed", zap.Error(err))
		}
	}
	if e.snapshotRepo != nil {
		snapshot, records, err := e.snapshotRepo.LoadView(ctx, models.ViewReasoned)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				e.logger.Warn("Snapshot view load failed", zap.Error(err))
			}
			return nil, ""
		}
		if snapshot.SourceHash != hash {
			return nil, ""
		}
		g := graph.NewStore()
		for _, rec := range records {
			g.AddWithOrigin(rec.Triple, rec.Origin)
		}
		return g, "snapshot"
	}
	return nil, ""
}

// storeCached replaces the serialized graph cache entry. Replacement under
// the new source hash is the invalidation; entries carry no TTL.
func (e *Engine) storeCached(ctx context.Context, hash string, reasoned *graph.Store) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Store(ctx, hash, reasoned); err != nil {
		e.logger.Warn("Failed to store graph cache entry", zap.Error(err))
	}
}

// schemaOnly extracts the schema triples (class declarations and
// hierarchy) from a store.
func schemaOnly(g *graph.Store) *graph.Store {
	out := graph.NewStore()
	for _, t := range g.MatchAll(graph.Any, graph.RDFType, models.IRI(graph.RDFSClass)) {
		if origin, ok := g.Origin(t); ok && origin == models.OriginAsserted {
			out.Add(t)
		}
	}
	for _, t := range g.MatchAll(graph.Any, graph.RDFSSubClassOf, graph.AnyTerm) {
		if origin, ok := g.Origin(t); ok && origin == models.OriginAsserted {
			out.Add(t)
		}
	}
	return out
}

// contentHash computes a deterministic SHA-256 over the sorted table
// contents. Identical inputs always produce identical hashes regardless of
// map iteration order.
func contentHash(tables map[string]*models.Table) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		t := tables[name]
		h.Write([]byte(name))
		cols := append([]string{}, t.Columns...)
		sort.Strings(cols)
		for _, row := range t.Rows {
			for _, col := range cols {
				h.Write([]byte(col))
				h.Write([]byte(row.Text(col)))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
