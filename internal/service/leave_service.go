package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/metrics"
	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
	"go.uber.org/zap"
)

// LeaveResult - созданная заявка вместе с медкартой-заглушкой
type LeaveResult struct {
	Leave        *model.MedicalLeave `json:"leave"`
	HealthRecord *model.HealthRecord `json:"health_record"`
}

type LeaveService struct {
	db      base.TxBeginner
	leaves  *repository.LeaveRepository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewLeaveService(db base.TxBeginner, leaves *repository.LeaveRepository, m *metrics.Metrics, logger *zap.Logger) *LeaveService {
	return &LeaveService{
		db:      db,
		leaves:  leaves,
		metrics: m,
		now:     time.Now,
		logger:  logger,
	}
}

// Apply создаёт медкарту-заглушку и заявку на больничный в одной транзакции
func (s *LeaveService) Apply(ctx context.Context, req *model.LeaveRequest) (*LeaveResult, error) {
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: leave date is required", ErrInvalidRequest)
	}
	if req.StudentID == 0 {
		return nil, ErrNoIdentity
	}

	result, err := s.insert(ctx, req)
	if err != nil {
		s.metrics.ObserveLeave("persistence_failure")
		s.logger.Error("Leave transaction failed",
			zap.Int64("student_id", req.StudentID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.ObserveLeave("completed")

	s.logger.Info("Medical leave recorded",
		zap.Int64("leave_id", result.Leave.ID),
		zap.Int64("health_record_id", result.HealthRecord.ID),
		zap.Int64("student_id", req.StudentID),
	)

	return result, nil
}

func (s *LeaveService) insert(ctx context.Context, req *model.LeaveRequest) (*LeaveResult, error) {
	// Начинаем транзакцию
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %w", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	repo := s.leaves.WithTx(tx)

	// Заявка обязана ссылаться на медкарту, поэтому создаём заглушку
	record := &model.HealthRecord{
		StudentID:      req.StudentID,
		Diagnosis:      model.PlaceholderDiagnosis,
		Treatment:      model.PlaceholderTreatment,
		IsManualUpload: true,
		Date:           s.now(),
	}
	if err := repo.CreateHealthRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	day := dateOnly(req.Date)
	leave := &model.MedicalLeave{
		StudentID:      req.StudentID,
		HealthRecordID: record.ID,
		FromDate:       day,
		ToDate:         day,
		Reason:         req.Reason,
		Status:         model.LeaveStatusPending,
	}
	if err := repo.CreateMedicalLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// Коммитим транзакцию
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit transaction: %w", ErrPersistence, err)
	}

	return &LeaveResult{Leave: leave, HealthRecord: record}, nil
}
