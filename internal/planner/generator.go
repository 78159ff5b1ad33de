package planner

import (
	"context"
	"sort"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

// generateCandidates returns the query row followed by, for each of its
// NNeighbors nearest reference rows, one candidate per controllable feature.
// Each candidate commits one more feature to a curve maximum.
func (p *Planner) generateCandidates(ctx context.Context, row domain.FeatureVector) ([]domain.FeatureVector, error) {
	neighbors, err := p.index.Nearest(ctx, row, p.cfg.NNeighbors)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FeatureVector, 0, 1+len(neighbors)*len(p.cfg.Features))
	out = append(out, row.Clone())
	for _, seed := range neighbors {
		walk, err := p.walkNeighbor(ctx, row, seed)
		if err != nil {
			return nil, err
		}
		out = append(out, walk...)
	}
	return out, nil
}

// walkNeighbor commits the controllable features of row one at a time, most
// promising curve first.
func (p *Planner) walkNeighbor(ctx context.Context, row domain.FeatureVector, seed int) ([]domain.FeatureVector, error) {
	n := len(p.cfg.Features)
	used := make([]bool, n)
	out := make([]domain.FeatureVector, 0, n)

	// Seed phase: the neighbor itself is the analog row for the first move.
	working := p.commitMaximal(row, seed, used)
	out = append(out, working)

	// Follow phase: the analog row tracks the working adaptation.
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		analog, err := p.nearestRow(ctx, working)
		if err != nil {
			return nil, err
		}
		working = p.commitMaximal(working, analog, used)
		out = append(out, working)
	}
	return out, nil
}

// commitMaximal picks the unused feature whose curve peaks highest at analog,
// moves it to its leftmost (decrease) or rightmost (increase) local maximum
// and marks it used. v is not modified.
func (p *Planner) commitMaximal(v domain.FeatureVector, analog int, used []bool) domain.FeatureVector {
	ranked := make([]int, len(p.cfg.Features))
	peaks := make([]float64, len(p.cfg.Features))
	for i := range ranked {
		ranked[i] = i
		peaks[i] = p.curves[i].MaxOrdinateAt(analog)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return peaks[ranked[a]] > peaks[ranked[b]]
	})

	next := v.Clone()
	for _, pos := range ranked {
		if used[pos] {
			continue
		}
		f := p.cfg.Features[pos]
		maxima := p.curves[pos].MaximaAt(analog)
		if len(maxima) > 0 {
			x := maxima[len(maxima)-1]
			if f.Direction == domain.Decrease {
				x = maxima[0]
			}
			next[f.Index], _ = f.Clamp(x)
		}
		used[pos] = true
		break
	}
	return next
}
