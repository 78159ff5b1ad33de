package planner

import (
	"context"
	"math"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

// expandCombinations appends, for every seed, the cross product of the curve
// maxima of all controllable features at the seed's analog row. Fixed
// dimensions are copied from row. The second result counts seeds whose cross
// product had to be pruned.
func (p *Planner) expandCombinations(ctx context.Context, row domain.FeatureVector, seeds []domain.FeatureVector) ([]domain.FeatureVector, int, error) {
	pool := append([]domain.FeatureVector(nil), seeds...)
	pruned := 0

	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		analog, err := p.nearestRow(ctx, seed)
		if err != nil {
			return nil, 0, err
		}

		maxima := make([][]float64, len(p.cfg.Features))
		for pos, f := range p.cfg.Features {
			maxima[pos] = clampAll(p.curves[pos].MaximaAt(analog), f)
		}

		before := combinations(maxima)
		maxima = pruneMaxima(maxima, p.cfg.MaxCombinations)
		if after := combinations(maxima); after < before {
			pruned++
			p.observer.CombinationsPruned(i, before, after)
		}

		pool = p.appendCrossProduct(pool, row, maxima)
	}
	return pool, pruned, nil
}

// pruneMaxima halves the longest list, keeping every other element starting
// with the second, until the cross product fits in limit. The first longest
// list wins ties. Input slices are not modified.
func pruneMaxima(maxima [][]float64, limit int) [][]float64 {
	out := make([][]float64, len(maxima))
	copy(out, maxima)
	for combinations(out) > limit {
		longest := 0
		for i := range out {
			if len(out[i]) > len(out[longest]) {
				longest = i
			}
		}
		halved := make([]float64, 0, len(out[longest])/2)
		for j := 1; j < len(out[longest]); j += 2 {
			halved = append(halved, out[longest][j])
		}
		out[longest] = halved
	}
	return out
}

// combinations is the cross-product size, saturating at math.MaxInt.
func combinations(maxima [][]float64) int {
	if len(maxima) == 0 {
		return 0
	}
	n := 1
	for _, m := range maxima {
		l := len(m)
		if l == 0 {
			return 0
		}
		if n > math.MaxInt/l {
			return math.MaxInt
		}
		n *= l
	}
	return n
}

// appendCrossProduct enumerates the product with the first feature varying
// slowest.
func (p *Planner) appendCrossProduct(pool []domain.FeatureVector, row domain.FeatureVector, maxima [][]float64) []domain.FeatureVector {
	total := combinations(maxima)
	if total == 0 {
		return pool
	}
	odometer := make([]int, len(maxima))
	for n := 0; n < total; n++ {
		v := row.Clone()
		for pos, f := range p.cfg.Features {
			v[f.Index] = maxima[pos][odometer[pos]]
		}
		pool = append(pool, v)

		for pos := len(odometer) - 1; pos >= 0; pos-- {
			odometer[pos]++
			if odometer[pos] < len(maxima[pos]) {
				break
			}
			odometer[pos] = 0
		}
	}
	return pool
}

func clampAll(xs []float64, f domain.ControllableFeature) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i], _ = f.Clamp(x)
	}
	return out
}
