package services

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Source kinds for watched files.
const (
	SourceKnowledge = "knowledge" // change triggers a full rebuild
	SourceStatus    = "status"    // change refreshes the status cache only
)

// WatchedSource is one polled file.
type WatchedSource struct {
	Path  string
	Table string
	Kind  string
}

// SourceLister returns the current watched-source list. It runs on every
// poll, so a lister backed by a directory glob picks up files created after
// startup.
type SourceLister func() ([]WatchedSource, error)

// StaticSources wraps a fixed source list in a lister.
func StaticSources(sources []WatchedSource) SourceLister {
	return func() ([]WatchedSource, error) { return sources, nil }
}

// StatusLoader reads the rows of a status-only table on demand.
type StatusLoader func(ctx context.Context, table string) ([]models.Row, error)

// Watcher polls source files for modification-time changes and triggers
// either an incremental status refresh or a full rebuild.
type Watcher struct {
	engine       *Engine
	lister       SourceLister
	statusLoader StatusLoader
	logger       *zap.Logger

	lastSeen map[string]time.Time
}

// NewWatcher creates a watcher over the sources the lister yields.
func NewWatcher(engine *Engine, lister SourceLister, statusLoader StatusLoader, logger *zap.Logger) *Watcher {
	return &Watcher{
		engine:       engine,
		lister:       lister,
		statusLoader: statusLoader,
		logger:       logger.Named("watcher"),
		lastSeen:     make(map[string]time.Time),
	}
}

// Run polls on the given interval until the context is cancelled. The
// first poll primes the modification-time baseline without triggering a
// rebuild; the initial build is the caller's responsibility.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	w.prime()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Watcher started",
		zap.Duration("interval", interval),
		zap.Int("sources", len(w.lastSeen)))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) prime() {
	for _, src := range w.list() {
		if info, err := os.Stat(src.Path); err == nil {
			w.lastSeen[src.Path] = info.ModTime()
		}
	}
}

func (w *Watcher) list() []WatchedSource {
	if w.lister == nil {
		return nil
	}
	sources, err := w.lister()
	if err != nil {
		w.logger.Warn("Failed to list watched sources", zap.Error(err))
		return nil
	}
	return sources
}

// poll checks every source once. A file modified since the last poll, or
// one that appeared since the baseline, triggers its kind's action;
// multiple changed knowledge sources coalesce into a single rebuild.
func (w *Watcher) poll(ctx context.Context) {
	rebuild := false

	for _, src := range w.list() {
		info, err := os.Stat(src.Path)
		if err != nil {
			// A missing file is a data-quality signal; the build handles
			// absent tables on its own.
			w.logger.Debug("Watched source unavailable",
				zap.String("path", src.Path),
				zap.Error(err))
			continue
		}
		last, seen := w.lastSeen[src.Path]
		if seen && !info.ModTime().After(last) {
			continue
		}
		w.lastSeen[src.Path] = info.ModTime()

		w.logger.Info("Source change detected",
			zap.String("path", src.Path),
			zap.String("table", src.Table),
			zap.String("kind", src.Kind),
			zap.Bool("new", !seen))

		switch src.Kind {
		case SourceStatus:
			w.refreshStatus(ctx, src.Table)
		default:
			rebuild = true
		}
	}

	if rebuild {
		if _, _, err := w.engine.Rebuild(ctx); err != nil {
			w.logger.Error("Rebuild failed", zap.Error(err))
		}
	}
}

func (w *Watcher) refreshStatus(ctx context.Context, table string) {
	if w.statusLoader == nil {
		return
	}
	rows, err := w.statusLoader(ctx, table)
	if err != nil {
		w.logger.Warn("Status refresh failed",
			zap.String("table", table),
			zap.Error(err))
		return
	}
	w.engine.RefreshStatus(ctx, table, rows)
}
