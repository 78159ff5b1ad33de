package planner

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"golang.org/x/sync/errgroup"
)

type featureState uint8

const (
	stateActive featureState = iota
	// stateBlocked: the last move of this feature was rejected; it becomes
	// active again after any accepted move.
	stateBlocked
	// stateExcluded: the feature reached a domain boundary.
	stateExcluded
)

// featureStates holds exactly one state per controllable feature.
type featureStates []featureState

func (s featureStates) anyActive() bool {
	for _, st := range s {
		if st == stateActive {
			return true
		}
	}
	return false
}

func (s featureStates) reopen() {
	for i, st := range s {
		if st == stateBlocked {
			s[i] = stateActive
		}
	}
}

// optimizeAll runs the greedy walk for every starting candidate. Walks are
// independent; results keep the input order regardless of Parallelism.
func (p *Planner) optimizeAll(ctx context.Context, starting []candidate, satisfiable bool) ([]candidate, []int, error) {
	finals := make([]candidate, len(starting))
	steps := make([]int, len(starting))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for i, start := range starting {
		g.Go(func() error {
			final, n, exhausted, err := p.optimize(gctx, start, satisfiable)
			if err != nil {
				return fmt.Errorf("optimize starting solution %d: %w", i, err)
			}
			finals[i] = final
			steps[i] = n
			p.observer.CandidateOptimized(i, n, exhausted)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return finals, steps, nil
}

// optimize walks one candidate until no feature is active or the step budget
// runs out. The third result reports budget exhaustion.
func (p *Planner) optimize(ctx context.Context, start candidate, satisfiable bool) (candidate, int, bool, error) {
	states := make(featureStates, len(p.cfg.Features))
	cur := start
	steps := 0
	for states.anyActive() {
		if steps >= p.cfg.MaxOptimizationSteps {
			return cur, steps, true, nil
		}
		if err := ctx.Err(); err != nil {
			return cur, steps, false, err
		}
		next, err := p.optimizeStep(ctx, cur, satisfiable, states)
		if err != nil {
			return cur, steps, false, err
		}
		cur = next
		steps++
	}
	return cur, steps, false, nil
}

// optimizeStep moves the active feature with the smallest estimated
// confidence loss by one Delta in its score direction, and keeps the move
// only if it passes the acceptance rule. states is updated in place.
//
// The acceptance rule depends on satisfiable, which describes the whole
// starting pool rather than this candidate.
func (p *Planner) optimizeStep(ctx context.Context, cur candidate, satisfiable bool, states featureStates) (candidate, error) {
	analog, err := p.nearestRow(ctx, cur.vector)
	if err != nil {
		return cur, err
	}

	pos := -1
	var minLoss float64
	for i, f := range p.cfg.Features {
		if states[i] != stateActive {
			continue
		}
		loss := p.curves[i].SlopeAt(cur.vector[f.Index], analog) * float64(f.Direction)
		if pos < 0 || loss < minLoss {
			pos, minLoss = i, loss
		}
	}
	if pos < 0 {
		return cur, nil
	}

	f := p.cfg.Features[pos]
	moved := cur.vector.Clone()
	value, clamped := f.Clamp(moved[f.Index] + float64(f.Direction)*p.cfg.Delta)
	moved[f.Index] = value
	if clamped {
		states[pos] = stateExcluded
	}

	conf, err := p.predictOne(ctx, moved)
	if err != nil {
		return cur, err
	}

	if rejectMove(satisfiable, p.cfg.TargetConfidence, conf, cur.confidence) {
		if states[pos] == stateActive {
			states[pos] = stateBlocked
		}
		return cur, nil
	}
	states.reopen()
	return candidate{vector: moved, confidence: conf}, nil
}

// rejectMove: when valid candidates exist every requirement must stay at or
// above target; otherwise no requirement may lose confidence.
func rejectMove(satisfiable bool, target float64, next, prev domain.ConfidenceVector) bool {
	if satisfiable {
		return !next.Satisfies(target)
	}
	return next.AnyBelow(prev)
}
