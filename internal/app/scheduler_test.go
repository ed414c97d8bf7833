package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (r *countingReconciler) ReconcileSlots(ctx context.Context) (int64, error) {
	r.calls.Add(1)
	return 3, r.err
}

func TestSchedulerRunsReconciliationOnStart(t *testing.T) {
	reconciler := &countingReconciler{}
	s := NewScheduler(reconciler, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return reconciler.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerSurvivesReconcilerError(t *testing.T) {
	reconciler := &countingReconciler{err: errors.New("db down")}
	s := NewScheduler(reconciler, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return reconciler.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(&countingReconciler{}, "not a schedule", zap.NewNop())

	err := s.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a schedule")
}

func TestSchedulerSkipsCancelledContext(t *testing.T) {
	reconciler := &countingReconciler{}
	s := NewScheduler(reconciler, "@every 1h", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.reconcileSlots(ctx)
	require.Equal(t, int32(0), reconciler.calls.Load())
}
