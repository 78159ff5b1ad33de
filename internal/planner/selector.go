package planner

import (
	"sort"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

// selectStarting narrows the predicted pool to at most NStartingSolutions
// starting points for score optimization.
//
// With more valid candidates than slots, valid candidates are ranked by score
// plus a normalized confidence surplus. With fewer, every valid candidate is
// kept. With none, candidates closest to the target are kept and score only
// breaks the cut.
func (p *Planner) selectStarting(pool []domain.FeatureVector, confidence []domain.ConfidenceVector) ([]candidate, domain.Regime) {
	n := p.cfg.NStartingSolutions
	target := p.cfg.TargetConfidence

	var valid []candidate
	for i, c := range confidence {
		if c.Satisfies(target) {
			valid = append(valid, candidate{vector: pool[i], confidence: c})
		}
	}

	switch {
	case len(valid) > n:
		ranks := make([]float64, len(valid))
		for i, c := range valid {
			ranks[i] = p.score(c.vector) + p.confidenceBonus(c.confidence)
		}
		return topN(valid, ranks, n), domain.RegimeValidRanked

	case len(valid) > 0:
		return valid, domain.RegimeValidAll
	}

	best := -1.0
	var closest []candidate
	for i, c := range confidence {
		rank := c.Surplus(target)
		switch {
		case closest == nil || rank > best:
			best = rank
			closest = []candidate{{vector: pool[i], confidence: c}}
		case rank == best:
			closest = append(closest, candidate{vector: pool[i], confidence: c})
		}
	}
	if len(closest) > n {
		scores := make([]float64, len(closest))
		for i, c := range closest {
			scores[i] = p.score(c.vector)
		}
		closest = topN(closest, scores, n)
	}
	return closest, domain.RegimeClosest
}

// confidenceBonus is confidenceBonusScale * sum(c - t) / sum(1 - t).
func (p *Planner) confidenceBonus(c domain.ConfidenceVector) float64 {
	target := p.cfg.TargetConfidence
	headroom := float64(len(c)) * (1 - target)
	if headroom == 0 {
		return 0
	}
	return c.Surplus(target) / headroom * confidenceBonusScale
}

// topN keeps the n highest-ranked candidates; equal ranks keep pool order.
func topN(cs []candidate, ranks []float64, n int) []candidate {
	order := make([]int, len(cs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})
	if n > len(order) {
		n = len(order)
	}
	out := make([]candidate, n)
	for i := 0; i < n; i++ {
		out[i] = cs[order[i]]
	}
	return out
}
