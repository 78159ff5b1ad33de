package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestRetentionService_Run(t *testing.T) {
	as := new(MockAdaptationStore)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewRetentionService(as, 30*24*time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }

	ctx := context.Background()
	as.On("DeleteOlderThan", ctx, now.Add(-30*24*time.Hour)).Return(int64(3), nil).Once()
	s.run(ctx)

	as.On("DeleteOlderThan", ctx, mock.Anything).Return(int64(0), errors.New("timeout")).Once()
	s.run(ctx)

	as.AssertExpectations(t)
}

func TestRetentionService_StartStop(t *testing.T) {
	as := new(MockAdaptationStore)
	as.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()

	s := NewRetentionService(as, time.Hour, zap.NewNop())
	s.SetInterval(5 * time.Millisecond)
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
