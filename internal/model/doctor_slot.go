package model

import "time"

// DoctorSlot - денормализованный индекс занятых слотов.
// Источник истины для конфликтов - таблица appointments.
type DoctorSlot struct {
	ID        int64     `json:"id"`
	DoctorID  int64     `json:"doctor_id"`
	DateTime  time.Time `json:"date_time"`
	IsBooked  bool      `json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
}
