// Package planner searches for adaptations of an entity's controllable
// features that make every requirement predictor reach a target confidence,
// then trades surplus confidence for a better score.
//
// A Planner is built once per model from a neighbor index over the reference
// dataset, one sensitivity curve per controllable feature and a confidence
// predictor. It holds no per-query state and is safe for concurrent
// FindAdaptation calls when the predictor is.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultMaxCombinations bounds the per-candidate cross product of curve
	// maxima.
	DefaultMaxCombinations = 10000

	// DefaultMaxOptimizationSteps bounds the greedy walk of one starting
	// candidate.
	DefaultMaxOptimizationSteps = 10000

	DefaultParallelism = 1

	// confidenceBonusScale brings the normalized confidence surplus to the
	// order of magnitude of typical scores when ranking valid candidates.
	confidenceBonusScale = 100
)

// Config holds the search parameters of a Planner.
type Config struct {
	NNeighbors         int
	NStartingSolutions int
	TargetConfidence   float64
	Features           []domain.ControllableFeature
	Delta              float64

	MaxCombinations      int
	MaxOptimizationSteps int
	Parallelism          int
}

func (c Config) withDefaults() Config {
	if c.MaxCombinations <= 0 {
		c.MaxCombinations = DefaultMaxCombinations
	}
	if c.MaxOptimizationSteps <= 0 {
		c.MaxOptimizationSteps = DefaultMaxOptimizationSteps
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	return c
}

// Validate checks the configuration on its own, without the index or curves.
func (c Config) Validate() error {
	if len(c.Features) == 0 {
		return fmt.Errorf("%w: no controllable features", domain.ErrInvalidArgument)
	}
	seen := make(map[int]bool, len(c.Features))
	for i, f := range c.Features {
		if f.Index < 0 {
			return fmt.Errorf("%w: feature %d has negative index %d", domain.ErrInvalidArgument, i, f.Index)
		}
		if seen[f.Index] {
			return fmt.Errorf("%w: feature index %d listed twice", domain.ErrInvalidArgument, f.Index)
		}
		seen[f.Index] = true
		if !(f.Min <= f.Max) {
			return fmt.Errorf("%w: feature %d domain [%v, %v] is inverted or NaN", domain.ErrInvalidArgument, i, f.Min, f.Max)
		}
		if !f.Direction.Valid() {
			return fmt.Errorf("%w: feature %d has %s", domain.ErrInvalidArgument, i, f.Direction)
		}
	}
	if c.NNeighbors < 1 {
		return fmt.Errorf("%w: n_neighbors must be at least 1", domain.ErrInvalidArgument)
	}
	if c.NStartingSolutions < 1 {
		return fmt.Errorf("%w: n_starting_solutions must be at least 1", domain.ErrInvalidArgument)
	}
	if !(c.TargetConfidence >= 0 && c.TargetConfidence <= 1) {
		return fmt.Errorf("%w: target confidence %v outside [0, 1]", domain.ErrInvalidArgument, c.TargetConfidence)
	}
	if !(c.Delta > 0) || math.IsInf(c.Delta, 1) {
		return fmt.Errorf("%w: delta must be positive and finite", domain.ErrInvalidArgument)
	}
	return nil
}

// Result is the outcome of one FindAdaptation call.
type Result struct {
	Adaptation domain.FeatureVector
	Confidence domain.ConfidenceVector
	Score      float64
	Valid      bool
	Regime     domain.Regime
	Stats      domain.AdaptationStats
}

type Planner struct {
	cfg       Config
	index     domain.NeighborIndex
	curves    []domain.SensitivityCurve
	predictor domain.ConfidencePredictor
	score     domain.ScoreFunc
	observer  Observer
	logger    *zap.Logger
}

// New validates cfg against the collaborators and returns a Planner. curves[i]
// belongs to cfg.Features[i] and must have a line for every reference row.
func New(
	cfg Config,
	index domain.NeighborIndex,
	curves []domain.SensitivityCurve,
	predictor domain.ConfidencePredictor,
	score domain.ScoreFunc,
	logger *zap.Logger,
) (*Planner, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if index == nil || predictor == nil || score == nil {
		return nil, fmt.Errorf("%w: index, predictor and score function are required", domain.ErrInvalidArgument)
	}
	if cfg.NNeighbors > index.Len() {
		return nil, fmt.Errorf("%w: n_neighbors=%d with %d reference rows", domain.ErrInvalidArgument, cfg.NNeighbors, index.Len())
	}
	if len(curves) != len(cfg.Features) {
		return nil, fmt.Errorf("%w: %d curves for %d controllable features", domain.ErrInvalidArgument, len(curves), len(cfg.Features))
	}
	for i, c := range curves {
		if c == nil || c.Rows() < index.Len() {
			return nil, fmt.Errorf("%w: curve %d does not cover the %d reference rows", domain.ErrInvalidArgument, i, index.Len())
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Planner{
		cfg:       cfg,
		index:     index,
		curves:    append([]domain.SensitivityCurve(nil), curves...),
		predictor: predictor,
		score:     score,
		logger:    logger,
	}
	p.observer = NewLogObserver(logger)
	return p, nil
}

// SetObserver replaces the phase observer. Call before the planner is shared.
func (p *Planner) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	p.observer = o
}

// Config returns the effective configuration, defaults applied.
func (p *Planner) Config() Config {
	return p.cfg
}

// FindAdaptation runs the full search for row and returns the best-scoring
// final adaptation. When no candidate satisfies the target the result is the
// best effort found and Valid is false. A row whose controllable values lie
// outside their domains is rejected with domain.ErrInvalidArgument.
func (p *Planner) FindAdaptation(ctx context.Context, row domain.FeatureVector) (*Result, error) {
	start := time.Now()
	if err := p.checkRow(row); err != nil {
		return nil, err
	}
	query := row.Clone()

	seeds, err := p.generateCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	seeds = dedupVectors(seeds)
	p.observer.CandidatesGenerated(len(seeds))

	pool, pruned, err := p.expandCombinations(ctx, query, seeds)
	if err != nil {
		return nil, err
	}
	pool = dedupVectors(pool)
	p.observer.PoolExpanded(len(pool))

	confidence, err := p.predict(ctx, pool)
	if err != nil {
		return nil, err
	}

	starting, regime := p.selectStarting(pool, confidence)
	p.observer.StartingSolutionsSelected(regime, len(starting))

	finals, steps, err := p.optimizeAll(ctx, starting, regime.ConstraintSatisfiable())
	if err != nil {
		return nil, err
	}
	finals = dedupCandidates(finals)

	best, bestScore := 0, math.Inf(-1)
	for i, c := range finals {
		if s := p.score(c.vector); s > bestScore {
			best, bestScore = i, s
		}
	}

	res := &Result{
		Adaptation: finals[best].vector,
		Confidence: finals[best].confidence,
		Score:      bestScore,
		Valid:      finals[best].confidence.Satisfies(p.cfg.TargetConfidence),
		Regime:     regime,
		Stats: domain.AdaptationStats{
			Candidates:        len(seeds),
			Expanded:          len(pool),
			PrunedCandidates:  pruned,
			StartingSolutions: len(starting),
			OptimizationSteps: steps,
			FinalSolutions:    len(finals),
			DurationMs:        time.Since(start).Milliseconds(),
		},
	}
	p.observer.AdaptationFound(res)
	return res, nil
}

func (p *Planner) checkRow(row domain.FeatureVector) error {
	for _, f := range p.cfg.Features {
		if f.Index >= len(row) {
			return fmt.Errorf("%w: row has %d values, feature index %d out of range", domain.ErrInvalidArgument, len(row), f.Index)
		}
		if !f.Contains(row[f.Index]) {
			return fmt.Errorf("%w: row value %v at index %d outside [%v, %v]", domain.ErrInvalidArgument, row[f.Index], f.Index, f.Min, f.Max)
		}
	}
	for i, x := range row {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: row value at index %d is not finite", domain.ErrInvalidArgument, i)
		}
	}
	return nil
}

// nearestRow is the analog reference row used to index curves for v.
func (p *Planner) nearestRow(ctx context.Context, v domain.FeatureVector) (int, error) {
	ids, err := p.index.Nearest(ctx, v, 1)
	if err != nil {
		return 0, fmt.Errorf("nearest reference row: %w", err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("nearest reference row: index returned %d ids", len(ids))
	}
	return ids[0], nil
}

// predict scores a batch and checks the shape of the answer.
func (p *Planner) predict(ctx context.Context, batch []domain.FeatureVector) ([]domain.ConfidenceVector, error) {
	out, err := p.predictor.Predict(ctx, batch)
	if err != nil {
		if errors.Is(err, domain.ErrPredictorFailure) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPredictorFailure, err)
	}
	if len(out) != len(batch) {
		return nil, fmt.Errorf("%w: %d confidence rows for %d inputs", domain.ErrPredictorFailure, len(out), len(batch))
	}
	for i, c := range out {
		if len(c) == 0 || len(c) != len(out[0]) {
			return nil, fmt.Errorf("%w: row %d has %d requirements, want %d", domain.ErrPredictorFailure, i, len(c), len(out[0]))
		}
		for _, x := range c {
			if math.IsNaN(x) || x < 0 || x > 1 {
				return nil, fmt.Errorf("%w: confidence %v outside [0, 1]", domain.ErrPredictorFailure, x)
			}
		}
	}
	return out, nil
}

func (p *Planner) predictOne(ctx context.Context, v domain.FeatureVector) (domain.ConfidenceVector, error) {
	out, err := p.predict(ctx, []domain.FeatureVector{v})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
