package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"go.uber.org/zap"
)

const defaultRetentionInterval = 1 * time.Hour

// RetentionService deletes stored adaptations older than the retention
// window.
type RetentionService struct {
	adaptations domain.AdaptationStore
	retention   time.Duration
	logger      *zap.Logger

	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewRetentionService(as domain.AdaptationStore, retention time.Duration, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		adaptations: as,
		retention:   retention,
		logger:      logger,
		interval:    defaultRetentionInterval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

func (s *RetentionService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the cleanup on a periodic schedule in a background goroutine.
func (s *RetentionService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("adaptation retention started",
			zap.Duration("interval", s.interval),
			zap.Duration("retention", s.retention))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("adaptation retention stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the cleanup loop.
func (s *RetentionService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *RetentionService) run(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.adaptations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to delete old adaptations", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted adaptations past retention",
			zap.Time("cutoff", cutoff),
			zap.Int64("count", deleted))
	}
}
