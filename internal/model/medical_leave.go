package model

import "time"

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// Значения-заглушки для медкарты, которую создаёт голосовой ассистент
const (
	PlaceholderDiagnosis = "Voice Assistant Entry"
	PlaceholderTreatment = "N/A"
)

type HealthRecord struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"student_id"`
	Diagnosis      string    `json:"diagnosis"`
	Treatment      string    `json:"treatment"`
	IsManualUpload bool      `json:"is_manual_upload"`
	Date           time.Time `json:"date"`
}

type MedicalLeave struct {
	ID             int64       `json:"id"`
	StudentID      int64       `json:"student_id"`
	HealthRecordID int64       `json:"health_record_id"`
	FromDate       time.Time   `json:"from_date"`
	ToDate         time.Time   `json:"to_date"`
	Reason         string      `json:"reason"`
	Status         LeaveStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
}
