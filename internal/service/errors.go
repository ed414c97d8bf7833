package service

import "errors"

var (
	// ErrDoctorNotFound - по запросу не найдено ни одного врача
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrSlotConflict - на этот слот врача уже есть активная запись
	ErrSlotConflict = errors.New("slot is already booked")
	// ErrNoIdentity - не удалось определить студента, от имени которого идёт запрос
	ErrNoIdentity = errors.New("student identity is not available")
	// ErrPersistence - транзакция откатилась из-за ошибки базы
	ErrPersistence = errors.New("persistence failure")
	// ErrUnavailable - база недоступна
	ErrUnavailable = errors.New("database unavailable")
	// ErrInvalidRequest - запрос собран не полностью
	ErrInvalidRequest = errors.New("invalid request")

	// Нарушения правил приёма
	ErrOutsideHours = errors.New("time is outside clinic hours")
	ErrLunchBreak   = errors.New("time falls into the lunch break")
	ErrPastDate     = errors.New("date is in the past")
)

// IsRuleViolation - ошибка относится к правилам расписания, а не к базе
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrOutsideHours) || errors.Is(err, ErrLunchBreak) || errors.Is(err, ErrPastDate)
}
