package model

import "time"

// AppointmentRequest собирается диалогом по одному полю за шаг
type AppointmentRequest struct {
	DoctorQuery string    // то, что сказал пользователь
	Doctor      *User     // найденный врач
	Purpose     string
	Date        time.Time // используется только дата
	Time        time.Time // используется только время суток
	StudentID   int64
}

// SlotDateTime собирает момент приёма из даты и времени в часовом поясе клиники
func (r *AppointmentRequest) SlotDateTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, r.Time.Hour(), r.Time.Minute(), 0, 0, loc)
}

type LeaveRequest struct {
	Date      time.Time
	Reason    string
	StudentID int64
}
