package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
)

// LeaveRepository хранит медкарты и заявки на больничный.
// Заявка всегда ссылается на медкарту, поэтому они живут в одном репозитории.
type LeaveRepository struct {
	db base.DBTX
}

func NewLeaveRepository(db base.DBTX) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *LeaveRepository) WithTx(tx base.DBTX) *LeaveRepository {
	return &LeaveRepository{db: tx}
}

// CreateHealthRecord создаёт запись медкарты
func (r *LeaveRepository) CreateHealthRecord(ctx context.Context, record *model.HealthRecord) error {
	query := `
		INSERT INTO health_records (student_id, diagnosis, treatment, is_manual_upload, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx, query,
		record.StudentID,
		record.Diagnosis,
		record.Treatment,
		record.IsManualUpload,
		record.Date,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("create health record: %w", err)
	}

	return nil
}

// CreateMedicalLeave создаёт заявку на больничный
func (r *LeaveRepository) CreateMedicalLeave(ctx context.Context, leave *model.MedicalLeave) error {
	query := `
		INSERT INTO medical_leaves (student_id, health_record_id, from_date, to_date, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		leave.StudentID,
		leave.HealthRecordID,
		leave.FromDate,
		leave.ToDate,
		leave.Reason,
		leave.Status,
	).Scan(&leave.ID, &leave.CreatedAt)

	if err != nil {
		return fmt.Errorf("create medical leave: %w", err)
	}

	return nil
}
