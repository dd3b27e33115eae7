// Package repositories holds persistence for the engine's snapshot views.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/database"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// TripleRecord is one persisted triple with its provenance.
type TripleRecord struct {
	Triple models.Triple
	Origin models.Origin
}

// SnapshotRepository persists the three named graph views. Provenance is
// stored per triple so a restart can restore asserted/inferred separation
// without re-running the closure.
type SnapshotRepository interface {
	// SaveView replaces the stored view for (name, sourceHash) and returns
	// the persisted snapshot descriptor.
	SaveView(ctx context.Context, name, sourceHash string, records []TripleRecord) (*models.GraphSnapshot, error)

	// LoadView returns the latest stored view with the given name.
	LoadView(ctx context.Context, name string) (*models.GraphSnapshot, []TripleRecord, error)
}

type snapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

var _ SnapshotRepository = (*snapshotRepository)(nil)

func (r *snapshotRepository) SaveView(ctx context.Context, name, sourceHash string, records []TripleRecord) (*models.GraphSnapshot, error) {
	snapshot := &models.GraphSnapshot{
		ID:          uuid.New(),
		Name:        name,
		TripleCount: len(records),
		SourceHash:  sourceHash,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// One stored view per (name, source_hash); a rebuild replaces it.
	if _, err := tx.Exec(ctx,
		`DELETE FROM graph_snapshots WHERE name = $1 AND source_hash = $2`,
		name, sourceHash); err != nil {
		return nil, fmt.Errorf("failed to clear previous view: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO graph_snapshots (id, name, source_hash, triple_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		snapshot.ID, snapshot.Name, snapshot.SourceHash, snapshot.TripleCount, snapshot.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			snapshot.ID,
			rec.Triple.Subject,
			rec.Triple.Predicate,
			rec.Triple.Object.Value,
			string(rec.Triple.Object.Kind),
			rec.Triple.Object.Datatype,
			string(rec.Origin),
		})
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"graph_triples"},
		[]string{"snapshot_id", "subject", "predicate", "object_value", "object_kind", "object_datatype", "origin"},
		pgx.CopyFromRows(rows)); err != nil {
		return nil, fmt.Errorf("failed to copy triples: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *snapshotRepository) LoadView(ctx context.Context, name string) (*models.GraphSnapshot, []TripleRecord, error) {
	var snapshot models.GraphSnapshot
	err := r.db.QueryRow(ctx,
		`SELECT id, name, source_hash, triple_count, created_at
		 FROM graph_snapshots
		 WHERE name = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, name).
		Scan(&snapshot.ID, &snapshot.Name, &snapshot.SourceHash, &snapshot.TripleCount, &snapshot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT subject, predicate, object_value, object_kind, object_datatype, origin
		 FROM graph_triples
		 WHERE snapshot_id = $1`, snapshot.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load triples for %s: %w", name, err)
	}
	defer rows.Close()

	records := make([]TripleRecord, 0, snapshot.TripleCount)
	for rows.Next() {
		var rec TripleRecord
		var kind, origin string
		if err := rows.Scan(
			&rec.Triple.Subject,
			&rec.Triple.Predicate,
			&rec.Triple.Object.Value,
			&kind,
			&rec.Triple.Object.Datatype,
			&origin); err != nil {
			return nil, nil, fmt.Errorf("failed to scan triple: %w", err)
		}
		rec.Triple.Object.Kind = models.TermKind(kind)
		rec.Origin = models.Origin(origin)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read triples for %s: %w", name, err)
	}

	return &snapshot, records, nil
}
