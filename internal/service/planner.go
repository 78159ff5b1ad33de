package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/adaptplan/internal/curve"
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/knn"
	"github.com/Harshitk-cp/adaptplan/internal/metrics"
	"github.com/Harshitk-cp/adaptplan/internal/planner"
	"github.com/Harshitk-cp/adaptplan/internal/predictor"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrAdaptationNotFound = errors.New("adaptation not found")
	ErrInvalidRow         = errors.New("invalid row")
)

// Neighbor index backends for PlannerOptions.NeighborIndex.
const (
	IndexMemory   = "memory"
	IndexPGVector = "pgvector"
)

// PlannerOptions are the deployment-wide knobs applied to every model's
// planner.
type PlannerOptions struct {
	Parallelism   int
	MaxSteps      int
	NeighborIndex string
	Predictor     predictor.Options
}

// BuildPlanner assembles a planner for def over index. A nil index builds the
// in-memory index from def.Reference; a nil pred is built from the model's
// predictor spec.
func BuildPlanner(def *ModelDefinition, index domain.NeighborIndex, pred domain.ConfidencePredictor, opts PlannerOptions, logger *zap.Logger) (*planner.Planner, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	m := def.Model

	if index == nil {
		bf, err := knn.FromReferenceRows(def.Reference)
		if err != nil {
			return nil, fmt.Errorf("build neighbor index: %w", err)
		}
		index = bf
	}

	curves := make([]domain.SensitivityCurve, len(m.Controllable))
	for _, spec := range def.Curves {
		c, err := curve.FromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("build curve %d: %w", spec.Position, err)
		}
		curves[spec.Position] = c
	}

	if pred == nil {
		p, err := predictor.NewClient(m.Predictor, opts.Predictor)
		if err != nil {
			return nil, fmt.Errorf("build predictor: %w", err)
		}
		pred = p
	}

	cfg := plannerConfig(m)
	cfg.Parallelism = opts.Parallelism
	cfg.MaxOptimizationSteps = opts.MaxSteps
	return planner.New(cfg, index, curves, pred, m.Score.Score, logger.With(zap.String("model_id", m.ID.String())))
}

type PlannerService struct {
	models      *ModelService
	refs        domain.ReferenceStore
	adaptations domain.AdaptationStore
	opts        PlannerOptions
	logger      *zap.Logger

	mu       sync.RWMutex
	planners map[uuid.UUID]*cachedPlanner
	// generation counts invalidations per model; a build started before an
	// Invalidate is not cached.
	generation map[uuid.UUID]uint64
	group      singleflight.Group
}

type cachedPlanner struct {
	planner  *planner.Planner
	model    *domain.Model
	provider string
}

func NewPlannerService(models *ModelService, rs domain.ReferenceStore, as domain.AdaptationStore, opts PlannerOptions, logger *zap.Logger) *PlannerService {
	return &PlannerService{
		models:      models,
		refs:        rs,
		adaptations: as,
		opts:        opts,
		logger:      logger,
		planners:    make(map[uuid.UUID]*cachedPlanner),
		generation:  make(map[uuid.UUID]uint64),
	}
}

// Plan runs the planner of modelID for row and stores the result.
func (s *PlannerService) Plan(ctx context.Context, modelID uuid.UUID, row domain.FeatureVector) (*domain.Adaptation, error) {
	cp, err := s.plannerFor(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if len(row) != cp.model.Width() {
		return nil, fmt.Errorf("%w: row has %d values, model has %d features", ErrInvalidRow, len(row), cp.model.Width())
	}

	res, err := cp.planner.FindAdaptation(ctx, row)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
		case errors.Is(err, domain.ErrPredictorFailure):
			metrics.RecordPredictorError(cp.provider)
			s.logger.Warn("predictor failed during adaptation search",
				zap.String("model_id", modelID.String()),
				zap.String("provider", cp.provider),
				zap.Error(err))
		}
		return nil, err
	}

	a := &domain.Adaptation{
		ModelID:    modelID,
		Row:        row.Clone(),
		Adaptation: res.Adaptation,
		Confidence: res.Confidence,
		Score:      res.Score,
		Valid:      res.Valid,
		Regime:     res.Regime,
		Stats:      res.Stats,
	}
	if err := s.adaptations.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("store adaptation: %w", err)
	}
	return a, nil
}

func (s *PlannerService) GetAdaptation(ctx context.Context, id uuid.UUID) (*domain.Adaptation, error) {
	a, err := s.adaptations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdaptationNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *PlannerService) ListAdaptations(ctx context.Context, modelID uuid.UUID, limit int) ([]domain.Adaptation, error) {
	if _, err := s.models.Get(ctx, modelID); err != nil {
		return nil, err
	}
	return s.adaptations.ListByModel(ctx, modelID, limit)
}

// Invalidate drops the cached planner of modelID. A build in flight when
// Invalidate runs still answers its callers but is not cached.
func (s *PlannerService) Invalidate(modelID uuid.UUID) {
	s.mu.Lock()
	delete(s.planners, modelID)
	s.generation[modelID]++
	s.mu.Unlock()
	s.group.Forget(modelID.String())
}

// Cached is the number of built planners held in memory.
func (s *PlannerService) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.planners)
}

// plannerFor returns the cached planner of modelID, building it on first use.
// Concurrent first requests for the same model share one build, which is
// detached from the cancellation of whichever request started it.
func (s *PlannerService) plannerFor(ctx context.Context, modelID uuid.UUID) (*cachedPlanner, error) {
	s.mu.RLock()
	cp, ok := s.planners[modelID]
	s.mu.RUnlock()
	if ok {
		return cp, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(modelID.String(), func() (any, error) {
		s.mu.RLock()
		cp, ok := s.planners[modelID]
		gen := s.generation[modelID]
		s.mu.RUnlock()
		if ok {
			return cp, nil
		}

		cp, err := s.build(buildCtx, modelID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generation[modelID] == gen {
			s.planners[modelID] = cp
		}
		s.mu.Unlock()
		return cp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cachedPlanner), nil
}

func (s *PlannerService) build(ctx context.Context, modelID uuid.UUID) (*cachedPlanner, error) {
	def, err := s.models.Load(ctx, modelID)
	if err != nil {
		return nil, err
	}

	var index domain.NeighborIndex
	if s.opts.NeighborIndex == IndexPGVector {
		index = store.NewReferenceIndex(s.refs, modelID, len(def.Reference))
	}

	p, err := BuildPlanner(def, index, nil, s.opts, s.logger)
	if err != nil {
		return nil, fmt.Errorf("build planner for model %s: %w", modelID, err)
	}
	p.SetObserver(planner.Observers(planner.NewLogObserver(s.logger), metrics.PlannerObserver{}))

	s.logger.Info("planner built",
		zap.String("model_id", modelID.String()),
		zap.String("neighbor_index", s.indexName()),
		zap.Int("reference_rows", len(def.Reference)))
	return &cachedPlanner{planner: p, model: def.Model, provider: def.Model.Predictor.Provider}, nil
}

func (s *PlannerService) indexName() string {
	if s.opts.NeighborIndex == IndexPGVector {
		return IndexPGVector
	}
	return IndexMemory
}
