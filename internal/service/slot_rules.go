package service

import (
	"time"
)

// Часы работы клиники, время суток от полуночи
const (
	OpeningTime    = 10 * time.Hour
	ClosingTime    = 18 * time.Hour
	LunchStartTime = 13 * time.Hour
	LunchEndTime   = 14 * time.Hour
)

// ValidateSlotTime проверяет время приёма: [10:00, 18:00) без [13:00, 14:00)
func ValidateSlotTime(t time.Time) error {
	tod := timeOfDay(t)

	if tod < OpeningTime || tod >= ClosingTime {
		return ErrOutsideHours
	}
	if tod >= LunchStartTime && tod < LunchEndTime {
		return ErrLunchBreak
	}

	return nil
}

// ValidateSlotDate запрещает запись на прошедшие дни. Сегодняшний день разрешён.
func ValidateSlotDate(date, now time.Time) error {
	if dateOnly(date).Before(dateOnly(now.In(date.Location()))) {
		return ErrPastDate
	}
	return nil
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
