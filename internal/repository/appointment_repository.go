package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
)

type AppointmentRepository struct {
	db base.DBTX
}

func NewAppointmentRepository(db base.DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *AppointmentRepository) WithTx(tx base.DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: tx}
}

const appointmentColumns = `id, student_id, doctor_id, slot_date_time, status, created_at, updated_at`

// Create создаёт новую запись на приём
func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (student_id, doctor_id, slot_date_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		appointment.StudentID,
		appointment.DoctorID,
		appointment.SlotDateTime,
		appointment.Status,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// FindActiveBySlot получает неотменённую запись на слот врача
func (r *AppointmentRepository) FindActiveBySlot(ctx context.Context, doctorID int64, slot time.Time) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND slot_date_time = $2 AND status <> 'cancelled'
		LIMIT 1
	`

	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, doctorID, slot))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find appointment by slot: %w", err)
	}

	return appointment, nil
}

// List получает все записи, ближайшие первыми
func (r *AppointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		ORDER BY slot_date_time, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appointments, nil
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var appointment model.Appointment
	err := row.Scan(
		&appointment.ID,
		&appointment.StudentID,
		&appointment.DoctorID,
		&appointment.SlotDateTime,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}
