package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

// globSources lists every CSV in dir as a knowledge source, the way the
// binary derives its watch list.
func globSources(dir string) SourceLister {
	return func() ([]WatchedSource, error) {
		paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return nil, err
		}
		sources := make([]WatchedSource, 0, len(paths))
		for _, path := range paths {
			table := strings.TrimSuffix(filepath.Base(path), ".csv")
			sources = append(sources, WatchedSource{Path: path, Table: table, Kind: SourceKnowledge})
		}
		return sources, nil
	}
}

func TestWatcherTriggersRebuildOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.csv")
	writeFile(t, path, "unit_id,name\nU1,1st Battalion\n")

	e := newTestEngine(t, engineTestLoader())
	_, _, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	hashBefore := e.SourceHash()

	w := NewWatcher(e, StaticSources([]WatchedSource{{Path: path, Table: "units", Kind: SourceKnowledge}}), nil, zap.NewNop())
	w.prime()

	// Unchanged file: no rebuild.
	loader := engineTestLoader()
	e.loader = loader
	w.poll(context.Background())
	assert.Equal(t, hashBefore, e.SourceHash())

	// Changed modification time: one rebuild.
	loader.Tables["axes"].Rows[0]["name"] = models.StringValue("Axis Renamed")
	touch(t, path)
	w.poll(context.Background())
	assert.NotEqual(t, hashBefore, e.SourceHash())
}

func TestWatcherPicksUpFileCreatedAfterStartup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "units.csv"), "unit_id\nU1\n")

	e := newTestEngine(t, engineTestLoader())
	_, _, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	hashBefore := e.SourceHash()

	w := NewWatcher(e, globSources(dir), nil, zap.NewNop())
	w.prime()

	w.poll(context.Background())
	assert.Equal(t, hashBefore, e.SourceHash())

	// A new CSV dropped into the data dir enters the watch list on the
	// next poll and triggers a rebuild.
	loader := engineTestLoader()
	loader.Tables["axes"].Rows[0]["name"] = models.StringValue("Axis South")
	e.loader = loader
	writeFile(t, filepath.Join(dir, "depots.csv"), "depot_id\nD1\n")
	w.poll(context.Background())
	assert.NotEqual(t, hashBefore, e.SourceHash())
}

func TestWatcherRebuildsWhenListedFileAppears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units.csv")

	e := newTestEngine(t, engineTestLoader())
	_, _, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	hashBefore := e.SourceHash()

	// The source is listed but its file does not exist yet.
	w := NewWatcher(e, StaticSources([]WatchedSource{{Path: path, Table: "units", Kind: SourceKnowledge}}), nil, zap.NewNop())
	w.prime()

	w.poll(context.Background())
	assert.Equal(t, hashBefore, e.SourceHash())

	loader := engineTestLoader()
	loader.Tables["axes"].Rows[0]["name"] = models.StringValue("Axis West")
	e.loader = loader
	writeFile(t, path, "unit_id\nU1\n")
	w.poll(context.Background())
	assert.NotEqual(t, hashBefore, e.SourceHash())
}

func TestWatcherStatusSourceRefreshesCacheOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unit_status.csv")
	writeFile(t, path, "unit_id,readiness\nU1,green\n")

	e := newTestEngine(t, engineTestLoader())
	_, _, err := e.Rebuild(context.Background())
	require.NoError(t, err)
	hashBefore := e.SourceHash()

	statusLoader := func(_ context.Context, table string) ([]models.Row, error) {
		return []models.Row{{"unit_id": models.StringValue("U1"), "readiness": models.StringValue("amber")}}, nil
	}
	w := NewWatcher(e, StaticSources([]WatchedSource{{Path: path, Table: "unit_status", Kind: SourceStatus}}), statusLoader, zap.NewNop())
	w.prime()

	touch(t, path)
	w.poll(context.Background())

	// Status refreshed, graph untouched.
	rows := e.Status("unit_status")
	require.Len(t, rows, 1)
	assert.Equal(t, "amber", rows[0].Text("readiness"))
	assert.Equal(t, hashBefore, e.SourceHash())
}

func TestWatcherCoalescesMultipleChanges(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "units.csv")
	second := filepath.Join(dir, "axes.csv")
	writeFile(t, first, "unit_id\nU1\n")
	writeFile(t, second, "axis_id\nA1\n")

	rebuilds := 0
	e := newTestEngine(t, countingLoader{MemoryLoader: engineTestLoader(), calls: &rebuilds})

	w := NewWatcher(e, StaticSources([]WatchedSource{
		{Path: first, Table: "units", Kind: SourceKnowledge},
		{Path: second, Table: "axes", Kind: SourceKnowledge},
	}), nil, zap.NewNop())
	w.prime()

	touch(t, first)
	touch(t, second)
	w.poll(context.Background())

	assert.Equal(t, 1, rebuilds)
}

func TestWatcherIgnoresMissingFiles(t *testing.T) {
	e := newTestEngine(t, engineTestLoader())
	w := NewWatcher(e, StaticSources([]WatchedSource{
		{Path: filepath.Join(t.TempDir(), "absent.csv"), Table: "units", Kind: SourceKnowledge},
	}), nil, zap.NewNop())

	w.prime()
	w.poll(context.Background()) // must not panic or rebuild
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(t, engineTestLoader())
	w := NewWatcher(e, nil, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

// countingLoader counts LoadAll calls to observe rebuild coalescing.
type countingLoader struct {
	*tabular.MemoryLoader
	calls *int
}

func (c countingLoader) LoadAll(ctx context.Context) (map[string]*models.Table, error) {
	*c.calls++
	return c.MemoryLoader.LoadAll(ctx)
}
