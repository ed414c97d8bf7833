package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
)

type DoctorSlotRepository struct {
	db base.DBTX
}

func NewDoctorSlotRepository(db base.DBTX) *DoctorSlotRepository {
	return &DoctorSlotRepository{db: db}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *DoctorSlotRepository) WithTx(tx base.DBTX) *DoctorSlotRepository {
	return &DoctorSlotRepository{db: tx}
}

// MarkBooked помечает слот занятым и возвращает строку индекса.
// Повторный вызов для того же слота не ошибка.
func (r *DoctorSlotRepository) MarkBooked(ctx context.Context, doctorID int64, slot time.Time) (*model.DoctorSlot, error) {
	query := `
		INSERT INTO doctor_slots (doctor_id, date_time, is_booked)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (doctor_id, date_time) DO UPDATE SET is_booked = TRUE
		RETURNING id, doctor_id, date_time, is_booked, created_at
	`

	var s model.DoctorSlot
	err := r.db.QueryRow(ctx, query, doctorID, slot).Scan(
		&s.ID,
		&s.DoctorID,
		&s.DateTime,
		&s.IsBooked,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("mark doctor slot booked: %w", err)
	}

	return &s, nil
}

// Reconcile приводит индекс в соответствие с таблицей appointments:
// помечает занятыми слоты активных записей и освобождает слоты отменённых.
func (r *DoctorSlotRepository) Reconcile(ctx context.Context) (int64, error) {
	bookQuery := `
		INSERT INTO doctor_slots (doctor_id, date_time, is_booked)
		SELECT doctor_id, slot_date_time, TRUE
		FROM appointments
		WHERE status <> 'cancelled'
		ON CONFLICT (doctor_id, date_time) DO UPDATE SET is_booked = TRUE
		WHERE doctor_slots.is_booked = FALSE
	`

	booked, err := r.db.Exec(ctx, bookQuery)
	if err != nil {
		return 0, fmt.Errorf("reconcile booked slots: %w", err)
	}

	releaseQuery := `
		UPDATE doctor_slots ds
		SET is_booked = FALSE
		WHERE ds.is_booked
		  AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.doctor_id = ds.doctor_id
			  AND a.slot_date_time = ds.date_time
			  AND a.status <> 'cancelled'
		  )
	`

	released, err := r.db.Exec(ctx, releaseQuery)
	if err != nil {
		return 0, fmt.Errorf("reconcile released slots: %w", err)
	}

	return booked.RowsAffected() + released.RowsAffected(), nil
}
