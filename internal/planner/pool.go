package planner

import (
	"sort"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

type candidate struct {
	vector     domain.FeatureVector
	confidence domain.ConfidenceVector
}

// dedupVectors drops exact duplicates and returns the survivors in
// lexicographic order, so later ranking ties resolve the same way on every
// run.
func dedupVectors(vs []domain.FeatureVector) []domain.FeatureVector {
	seen := make(map[string]struct{}, len(vs))
	out := make([]domain.FeatureVector, 0, len(vs))
	for _, v := range vs {
		k := v.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out
}

// dedupCandidates is dedupVectors keyed on the vector; the first occurrence's
// confidence is kept.
func dedupCandidates(cs []candidate) []candidate {
	seen := make(map[string]struct{}, len(cs))
	out := make([]candidate, 0, len(cs))
	for _, c := range cs {
		k := c.vector.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].vector.Compare(out[j].vector) < 0
	})
	return out
}
