// Package metrics exports planner activity as Prometheus collectors.
package metrics

import (
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/planner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// adaptationsTotal counts finished searches.
	// Labels: regime, valid ("true", "false")
	adaptationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "adaptations_total",
		Help:      "Completed adaptation searches by starting regime and validity",
	}, []string{"regime", "valid"})

	adaptationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "adaptation_duration_seconds",
		Help:      "Wall time of one adaptation search",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	poolSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "pool_size",
		Help:      "Deduplicated candidate pool size after combinatorial expansion",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	})

	prunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "pruned_candidates_total",
		Help:      "Candidates whose maxima cross product was pruned to the combination budget",
	})

	optimizationSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "optimization_steps",
		Help:      "Greedy steps taken per starting solution",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	budgetExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "adaptplan",
		Subsystem: "planner",
		Name:      "step_budget_exhausted_total",
		Help:      "Starting solutions whose greedy walk hit the step budget",
	})

	// predictorErrors counts failed searches caused by the confidence predictor.
	// Labels: provider
	predictorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adaptplan",
		Subsystem: "predictor",
		Name:      "errors_total",
		Help:      "Adaptation searches aborted by a predictor failure",
	}, []string{"provider"})
)

// PlannerObserver feeds planner phase events into the collectors above.
type PlannerObserver struct{}

var _ planner.Observer = PlannerObserver{}

func (PlannerObserver) CandidatesGenerated(int) {}

func (PlannerObserver) CombinationsPruned(int, int, int) {
	prunedTotal.Inc()
}

func (PlannerObserver) PoolExpanded(n int) {
	poolSize.Observe(float64(n))
}

func (PlannerObserver) StartingSolutionsSelected(domain.Regime, int) {}

func (PlannerObserver) CandidateOptimized(_ int, steps int, exhausted bool) {
	optimizationSteps.Observe(float64(steps))
	if exhausted {
		budgetExhaustedTotal.Inc()
	}
}

func (PlannerObserver) AdaptationFound(res *planner.Result) {
	valid := "false"
	if res.Valid {
		valid = "true"
	}
	adaptationsTotal.WithLabelValues(string(res.Regime), valid).Inc()
	adaptationDuration.Observe(float64(res.Stats.DurationMs) / 1000)
}

// RecordPredictorError records a search aborted by the predictor.
func RecordPredictorError(provider string) {
	predictorErrors.WithLabelValues(provider).Inc()
}
