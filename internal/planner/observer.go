package planner

import (
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"go.uber.org/zap"
)

// Observer receives one event per search phase. CandidateOptimized may be
// called from several goroutines at once.
type Observer interface {
	CandidatesGenerated(n int)
	// CombinationsPruned reports that the maxima cross product of a
	// candidate was cut from before to after combinations.
	CombinationsPruned(candidate, before, after int)
	PoolExpanded(n int)
	StartingSolutionsSelected(regime domain.Regime, n int)
	CandidateOptimized(candidate, steps int, exhausted bool)
	AdaptationFound(res *Result)
}

type NopObserver struct{}

func (NopObserver) CandidatesGenerated(int) {}
func (NopObserver) CombinationsPruned(int, int, int) {}
func (NopObserver) PoolExpanded(int) {}
func (NopObserver) StartingSolutionsSelected(domain.Regime, int) {}
func (NopObserver) CandidateOptimized(int, int, bool) {}
func (NopObserver) AdaptationFound(*Result) {}

// LogObserver writes phase events to a zap logger: pruning at info, budget
// exhaustion at warn, everything else at debug.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) CandidatesGenerated(n int) {
	o.logger.Debug("candidates generated", zap.Int("count", n))
}

func (o *LogObserver) CombinationsPruned(candidate, before, after int) {
	o.logger.Info("pruned combinations",
		zap.Int("candidate", candidate),
		zap.Int("possibilities", before),
		zap.Int("kept", after),
		zap.Int("pruned", before-after))
}

func (o *LogObserver) PoolExpanded(n int) {
	o.logger.Debug("candidate pool expanded", zap.Int("count", n))
}

func (o *LogObserver) StartingSolutionsSelected(regime domain.Regime, n int) {
	o.logger.Debug("starting solutions selected",
		zap.String("regime", string(regime)),
		zap.Int("count", n))
}

func (o *LogObserver) CandidateOptimized(candidate, steps int, exhausted bool) {
	if exhausted {
		o.logger.Warn("optimization step budget exhausted",
			zap.Int("candidate", candidate),
			zap.Int("steps", steps))
		return
	}
	o.logger.Debug("candidate optimized",
		zap.Int("candidate", candidate),
		zap.Int("steps", steps))
}

func (o *LogObserver) AdaptationFound(res *Result) {
	o.logger.Debug("adaptation found",
		zap.Float64("score", res.Score),
		zap.Bool("valid", res.Valid),
		zap.String("regime", string(res.Regime)),
		zap.Float64s("confidence", res.Confidence),
		zap.Int64("duration_ms", res.Stats.DurationMs))
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) CandidatesGenerated(n int) {
	for _, o := range m {
		o.CandidatesGenerated(n)
	}
}

func (m multiObserver) CombinationsPruned(candidate, before, after int) {
	for _, o := range m {
		o.CombinationsPruned(candidate, before, after)
	}
}

func (m multiObserver) PoolExpanded(n int) {
	for _, o := range m {
		o.PoolExpanded(n)
	}
}

func (m multiObserver) StartingSolutionsSelected(regime domain.Regime, n int) {
	for _, o := range m {
		o.StartingSolutionsSelected(regime, n)
	}
}

func (m multiObserver) CandidateOptimized(candidate, steps int, exhausted bool) {
	for _, o := range m {
		o.CandidateOptimized(candidate, steps, exhausted)
	}
}

func (m multiObserver) AdaptationFound(res *Result) {
	for _, o := range m {
		o.AdaptationFound(res)
	}
}
