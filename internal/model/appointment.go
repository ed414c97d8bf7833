package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // Ожидает подтверждения врача
	AppointmentStatusConfirmed AppointmentStatus = "confirmed" // Подтверждено
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменено, слот снова свободен
)

// AppointmentDuration - длительность одного приёма
const AppointmentDuration = 30 * time.Minute

type Appointment struct {
	ID           int64             `json:"id"`
	StudentID    int64             `json:"student_id"`
	DoctorID     int64             `json:"doctor_id"`
	SlotDateTime time.Time         `json:"slot_date_time"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IsActive - занимает ли запись слот врача
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}
