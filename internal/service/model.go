package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/curve"
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/planner"
	"github.com/Harshitk-cp/adaptplan/internal/predictor"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrModelConflict = errors.New("model with this name already exists")
	ErrInvalidModel  = errors.New("invalid model definition")
)

// ModelDefinition is a model together with the data the planner is built
// from: the reference dataset and one sensitivity curve per controllable
// feature.
type ModelDefinition struct {
	Model     *domain.Model
	Reference []domain.ReferenceRow
	Curves    []domain.CurveSpec
}

type ModelService struct {
	models domain.ModelStore
	refs   domain.ReferenceStore
	curves domain.CurveStore
	logger *zap.Logger
}

func NewModelService(ms domain.ModelStore, rs domain.ReferenceStore, cs domain.CurveStore, logger *zap.Logger) *ModelService {
	return &ModelService{models: ms, refs: rs, curves: cs, logger: logger}
}

// Create validates def and persists the model, its reference rows and its
// curves. A partially written model is removed again on failure.
func (s *ModelService) Create(ctx context.Context, def *ModelDefinition) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}
	m := def.Model
	m.ReferenceCount = len(def.Reference)

	if err := s.models.Create(ctx, m); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrModelConflict
		}
		return err
	}

	if err := s.writeData(ctx, m.ID, def); err != nil {
		if delErr := s.models.Delete(ctx, m.ID); delErr != nil {
			s.logger.Error("failed to remove partially created model",
				zap.String("model_id", m.ID.String()),
				zap.Error(delErr))
		}
		return err
	}

	s.logger.Info("model created",
		zap.String("model_id", m.ID.String()),
		zap.String("name", m.Name),
		zap.Int("reference_rows", m.ReferenceCount),
		zap.Int("controllable", len(m.Controllable)))
	return nil
}

func (s *ModelService) writeData(ctx context.Context, id uuid.UUID, def *ModelDefinition) error {
	if err := s.refs.InsertBatch(ctx, id, def.Reference); err != nil {
		return fmt.Errorf("store reference rows: %w", err)
	}
	for i := range def.Curves {
		if err := s.curves.Upsert(ctx, id, &def.Curves[i]); err != nil {
			return fmt.Errorf("store curve %d: %w", def.Curves[i].Position, err)
		}
	}
	return nil
}

func (s *ModelService) Get(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	m, err := s.models.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *ModelService) List(ctx context.Context, limit int) ([]domain.Model, error) {
	return s.models.List(ctx, limit)
}

func (s *ModelService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.models.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrModelNotFound
		}
		return err
	}
	return nil
}

// Load reads a stored model back into a definition.
func (s *ModelService) Load(ctx context.Context, id uuid.UUID) (*ModelDefinition, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.refs.ListByModel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reference rows: %w", err)
	}
	curves, err := s.curves.ListByModel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load curves: %w", err)
	}
	return &ModelDefinition{Model: m, Reference: rows, Curves: curves}, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidModel, fmt.Sprintf(format, args...))
}

// ValidateDefinition checks everything the planner would reject, up front.
func ValidateDefinition(def *ModelDefinition) error {
	if def == nil || def.Model == nil {
		return invalid("model is required")
	}
	m := def.Model
	if m.Name == "" {
		return invalid("name is required")
	}
	width := m.Width()
	if width == 0 {
		return invalid("feature_names is required")
	}

	cfg := plannerConfig(m)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if m.TargetConfidence <= 0 {
		return invalid("target_confidence must be in (0, 1]")
	}
	for i, f := range m.Controllable {
		if f.Index >= width {
			return invalid("controllable feature %d index %d outside %d features", i, f.Index, width)
		}
	}

	n := len(def.Reference)
	if n == 0 {
		return invalid("reference dataset is empty")
	}
	if m.NNeighbors > n {
		return invalid("n_neighbors=%d with %d reference rows", m.NNeighbors, n)
	}
	seen := make([]bool, n)
	for _, r := range def.Reference {
		if r.RowID < 0 || r.RowID >= n || seen[r.RowID] {
			return invalid("reference row ids must be a permutation of 0..%d", n-1)
		}
		seen[r.RowID] = true
		if len(r.Values) != width {
			return invalid("reference row %d has %d values, want %d", r.RowID, len(r.Values), width)
		}
	}

	if len(def.Curves) != len(m.Controllable) {
		return invalid("%d curves for %d controllable features", len(def.Curves), len(m.Controllable))
	}
	covered := make([]bool, len(m.Controllable))
	for _, spec := range def.Curves {
		if spec.Position < 0 || spec.Position >= len(covered) || covered[spec.Position] {
			return invalid("curve position %d is out of range or repeated", spec.Position)
		}
		covered[spec.Position] = true
		c, err := curve.FromSpec(spec)
		if err != nil {
			return invalid("curve %d: %v", spec.Position, err)
		}
		if c.Rows() < n {
			return invalid("curve %d has %d lines for %d reference rows", spec.Position, c.Rows(), n)
		}
	}

	if len(m.Score.Weights) != width {
		return invalid("score has %d weights for %d features", len(m.Score.Weights), width)
	}

	switch m.Predictor.Provider {
	case predictor.ProviderLogistic:
		if len(m.Predictor.Requirements) == 0 {
			return invalid("logistic predictor needs at least one requirement")
		}
		for i, r := range m.Predictor.Requirements {
			if len(r.Weights) != width {
				return invalid("requirement %d has %d weights for %d features", i, len(r.Weights), width)
			}
		}
	case predictor.ProviderHTTP:
		if m.Predictor.Endpoint == "" {
			return invalid("http predictor needs an endpoint")
		}
	case predictor.ProviderMock:
	default:
		return invalid("unknown predictor provider %q", m.Predictor.Provider)
	}
	return nil
}

func plannerConfig(m *domain.Model) planner.Config {
	return planner.Config{
		NNeighbors:         m.NNeighbors,
		NStartingSolutions: m.NStartingSolutions,
		TargetConfidence:   m.TargetConfidence,
		Features:           m.Controllable,
		Delta:              m.Delta,
	}
}
