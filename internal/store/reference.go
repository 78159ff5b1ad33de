package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ReferenceStore struct {
	db *pgxpool.Pool
}

func NewReferenceStore(db *pgxpool.Pool) *ReferenceStore {
	return &ReferenceStore{db: db}
}

// InsertBatch stores rows in one transaction. values keeps full precision;
// embedding is the float32 copy used for vector ordering.
func (s *ReferenceStore) InsertBatch(ctx context.Context, modelID uuid.UUID, rows []domain.ReferenceRow) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reference insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO reference_rows (model_id, row_id, feature_values, embedding)
			 VALUES ($1, $2, $3, $4)`,
			modelID, r.RowID, r.Values, pgvector.NewVector(toFloat32(r.Values)),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert reference rows: %w", err)
	}
	return tx.Commit(ctx)
}

// ListByModel returns every reference row of a model ordered by row id.
func (s *ReferenceStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.ReferenceRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT row_id, feature_values FROM reference_rows
		 WHERE model_id = $1 ORDER BY row_id`,
		modelID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reference rows: %w", err)
	}
	defer rows.Close()

	var out []domain.ReferenceRow
	for rows.Next() {
		var r domain.ReferenceRow
		if err := rows.Scan(&r.RowID, &r.Values); err != nil {
			return nil, fmt.Errorf("scan reference row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Nearest returns the row ids of the k reference rows closest to v by L2
// distance, ties broken by row id.
func (s *ReferenceStore) Nearest(ctx context.Context, modelID uuid.UUID, v domain.FeatureVector, k int) ([]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT row_id FROM reference_rows
		 WHERE model_id = $1
		 ORDER BY embedding <-> $2, row_id
		 LIMIT $3`,
		modelID, pgvector.NewVector(toFloat32(v)), k,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest reference rows: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, k)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan row id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func toFloat32(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = float32(x)
	}
	return out
}

// referenceQuerier is the part of ReferenceStore a ReferenceIndex needs.
type referenceQuerier interface {
	Nearest(ctx context.Context, modelID uuid.UUID, v domain.FeatureVector, k int) ([]int, error)
}

// ReferenceIndex is a domain.NeighborIndex over one model's reference rows
// answered by pgvector.
type ReferenceIndex struct {
	store   referenceQuerier
	modelID uuid.UUID
	rows    int
}

// NewReferenceIndex binds refs to a model with rows reference rows.
func NewReferenceIndex(refs domain.ReferenceStore, modelID uuid.UUID, rows int) *ReferenceIndex {
	return &ReferenceIndex{store: refs, modelID: modelID, rows: rows}
}

func (ix *ReferenceIndex) Len() int {
	return ix.rows
}

func (ix *ReferenceIndex) Nearest(ctx context.Context, v domain.FeatureVector, k int) ([]int, error) {
	if k < 1 || k > ix.rows {
		return nil, fmt.Errorf("%w: k=%d with %d reference rows", domain.ErrInvalidArgument, k, ix.rows)
	}
	ids, err := ix.store.Nearest(ctx, ix.modelID, v, k)
	if err != nil {
		return nil, err
	}
	if len(ids) != k {
		return nil, fmt.Errorf("nearest reference rows: got %d ids, want %d", len(ids), k)
	}
	return ids, nil
}
