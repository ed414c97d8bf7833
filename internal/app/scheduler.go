package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SlotReconciler пересобирает индекс doctor_slots по таблице appointments
type SlotReconciler interface {
	ReconcileSlots(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reconciler SlotReconciler
	spec       string
	cron       *cron.Cron
	logger     *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(reconciler SlotReconciler, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		spec:       spec,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.String("schedule", s.spec))

	if _, err := s.cron.AddFunc(s.spec, func() { s.reconcileSlots(ctx) }); err != nil {
		return fmt.Errorf("schedule slot reconciliation %q: %w", s.spec, err)
	}

	// Первый запуск сразу при старте
	go s.reconcileSlots(ctx)

	s.cron.Start()
	return nil
}

// Stop останавливает фоновые задачи и ждёт завершения текущего запуска
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// reconcileSlots синхронизирует doctor_slots с активными записями
func (s *Scheduler) reconcileSlots(ctx context.Context) {
	if ctx.Err() != nil {
		s.logger.Info("Slot reconciliation skipped, context cancelled")
		return
	}

	affected, err := s.reconciler.ReconcileSlots(ctx)
	if err != nil {
		s.logger.Error("Failed to reconcile doctor slots", zap.Error(err))
		return
	}

	s.logger.Info("Doctor slots reconciled", zap.Int64("rows", affected))
}
