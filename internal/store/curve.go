package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CurveStore struct {
	db *pgxpool.Pool
}

func NewCurveStore(db *pgxpool.Pool) *CurveStore {
	return &CurveStore{db: db}
}

func (s *CurveStore) Upsert(ctx context.Context, modelID uuid.UUID, c *domain.CurveSpec) error {
	lines, err := json.Marshal(c.Lines)
	if err != nil {
		return fmt.Errorf("marshal curve lines: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO curves (model_id, position, grid, lines)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (model_id, position)
		 DO UPDATE SET grid = EXCLUDED.grid, lines = EXCLUDED.lines`,
		modelID, c.Position, c.Grid, lines,
	)
	if err != nil {
		return fmt.Errorf("upsert curve %d: %w", c.Position, err)
	}
	return nil
}

// ListByModel returns a model's curves ordered by controllable position.
func (s *CurveStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.CurveSpec, error) {
	rows, err := s.db.Query(ctx,
		`SELECT position, grid, lines FROM curves
		 WHERE model_id = $1 ORDER BY position`,
		modelID,
	)
	if err != nil {
		return nil, fmt.Errorf("list curves: %w", err)
	}
	defer rows.Close()

	var out []domain.CurveSpec
	for rows.Next() {
		var c domain.CurveSpec
		var raw []byte
		if err := rows.Scan(&c.Position, &c.Grid, &raw); err != nil {
			return nil, fmt.Errorf("scan curve: %w", err)
		}
		if err := json.Unmarshal(raw, &c.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal curve lines: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
