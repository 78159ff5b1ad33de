package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ModelStore struct {
	db *pgxpool.Pool
}

func NewModelStore(db *pgxpool.Pool) *ModelStore {
	return &ModelStore{db: db}
}

// modelConfig is the JSONB form of everything in a model except identity and
// timestamps.
type modelConfig struct {
	FeatureNames       []string                     `json:"feature_names"`
	Controllable       []domain.ControllableFeature `json:"controllable"`
	TargetConfidence   float64                      `json:"target_confidence"`
	NNeighbors         int                          `json:"n_neighbors"`
	NStartingSolutions int                          `json:"n_starting_solutions"`
	Delta              float64                      `json:"delta"`
	Score              domain.LinearScore           `json:"score"`
	Predictor          domain.PredictorSpec         `json:"predictor"`
}

func configOf(m *domain.Model) modelConfig {
	return modelConfig{
		FeatureNames:       m.FeatureNames,
		Controllable:       m.Controllable,
		TargetConfidence:   m.TargetConfidence,
		NNeighbors:         m.NNeighbors,
		NStartingSolutions: m.NStartingSolutions,
		Delta:              m.Delta,
		Score:              m.Score,
		Predictor:          m.Predictor,
	}
}

func (c modelConfig) applyTo(m *domain.Model) {
	m.FeatureNames = c.FeatureNames
	m.Controllable = c.Controllable
	m.TargetConfidence = c.TargetConfidence
	m.NNeighbors = c.NNeighbors
	m.NStartingSolutions = c.NStartingSolutions
	m.Delta = c.Delta
	m.Score = c.Score
	m.Predictor = c.Predictor
}

func (s *ModelStore) Create(ctx context.Context, m *domain.Model) error {
	cfg, err := json.Marshal(configOf(m))
	if err != nil {
		return fmt.Errorf("marshal model config: %w", err)
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO models (name, config, reference_count)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		m.Name, cfg, m.ReferenceCount,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ModelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	m := &domain.Model{}
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, name, config, reference_count, created_at, updated_at
		 FROM models WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Name, &raw, &m.ReferenceCount, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var cfg modelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal model config: %w", err)
	}
	cfg.applyTo(m)
	return m, nil
}

func (s *ModelStore) List(ctx context.Context, limit int) ([]domain.Model, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, name, config, reference_count, created_at, updated_at
		 FROM models ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		var m domain.Model
		var raw []byte
		if err := rows.Scan(&m.ID, &m.Name, &raw, &m.ReferenceCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		var cfg modelConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal model config: %w", err)
		}
		cfg.applyTo(&m)
		models = append(models, m)
	}
	return models, rows.Err()
}

func (s *ModelStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
