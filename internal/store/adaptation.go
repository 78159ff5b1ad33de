package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdaptationStore struct {
	db *pgxpool.Pool
}

func NewAdaptationStore(db *pgxpool.Pool) *AdaptationStore {
	return &AdaptationStore{db: db}
}

const adaptationColumns = `id, model_id, row_values, adaptation, confidence, score, valid, regime, stats, created_at`

func (s *AdaptationStore) Create(ctx context.Context, a *domain.Adaptation) error {
	stats, err := json.Marshal(a.Stats)
	if err != nil {
		return fmt.Errorf("marshal adaptation stats: %w", err)
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO adaptations (model_id, row_values, adaptation, confidence, score, valid, regime, stats)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		a.ModelID, []float64(a.Row), []float64(a.Adaptation), []float64(a.Confidence), a.Score, a.Valid, string(a.Regime), stats,
	).Scan(&a.ID, &a.CreatedAt)
}

func scanAdaptation(row pgx.Row) (*domain.Adaptation, error) {
	a := &domain.Adaptation{}
	var rowValues, adaptation, confidence []float64
	var regime string
	var stats []byte
	if err := row.Scan(&a.ID, &a.ModelID, &rowValues, &adaptation, &confidence, &a.Score, &a.Valid, &regime, &stats, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Row = rowValues
	a.Adaptation = adaptation
	a.Confidence = confidence
	a.Regime = domain.Regime(regime)
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &a.Stats); err != nil {
			return nil, fmt.Errorf("unmarshal adaptation stats: %w", err)
		}
	}
	return a, nil
}

func (s *AdaptationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Adaptation, error) {
	a, err := scanAdaptation(s.db.QueryRow(ctx,
		`SELECT `+adaptationColumns+` FROM adaptations WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AdaptationStore) ListByModel(ctx context.Context, modelID uuid.UUID, limit int) ([]domain.Adaptation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+adaptationColumns+` FROM adaptations
		 WHERE model_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		modelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list adaptations: %w", err)
	}
	defer rows.Close()

	var out []domain.Adaptation
	for rows.Next() {
		a, err := scanAdaptation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adaptation: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes adaptations created before cutoff and reports how
// many were deleted.
func (s *AdaptationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM adaptations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old adaptations: %w", err)
	}
	return tag.RowsAffected(), nil
}
