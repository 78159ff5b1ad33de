package domain

import (
	"time"

	"github.com/google/uuid"
)

// Regime names the Selector branch that produced the starting solutions.
type Regime string

const (
	// RegimeValidRanked: more valid candidates than starting slots, ranked by
	// score plus normalized confidence surplus.
	RegimeValidRanked Regime = "valid_ranked"
	// RegimeValidAll: every valid candidate fits in the starting slots.
	RegimeValidAll Regime = "valid_all"
	// RegimeClosest: no valid candidate; closest-to-target candidates kept.
	RegimeClosest Regime = "closest"
)

// ConstraintSatisfiable reports whether valid candidates existed, which
// selects the acceptance rule used during score optimization.
func (r Regime) ConstraintSatisfiable() bool {
	return r == RegimeValidRanked || r == RegimeValidAll
}

// AdaptationStats summarizes one planner run.
type AdaptationStats struct {
	Candidates        int   `json:"candidates"`
	Expanded          int   `json:"expanded"`
	PrunedCandidates  int   `json:"pruned_candidates"`
	StartingSolutions int   `json:"starting_solutions"`
	OptimizationSteps []int `json:"optimization_steps"`
	FinalSolutions    int   `json:"final_solutions"`
	DurationMs        int64 `json:"duration_ms"`
}

// Adaptation is a persisted planner result for one query row.
type Adaptation struct {
	ID         uuid.UUID        `json:"id"`
	ModelID    uuid.UUID        `json:"model_id"`
	Row        FeatureVector    `json:"row"`
	Adaptation FeatureVector    `json:"adaptation"`
	Confidence ConfidenceVector `json:"confidence"`
	Score      float64          `json:"score"`
	Valid      bool             `json:"valid"`
	Regime     Regime           `json:"regime"`
	Stats      AdaptationStats  `json:"stats"`
	CreatedAt  time.Time        `json:"created_at"`
}
