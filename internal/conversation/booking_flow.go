package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"go.uber.org/zap"
)

// BookAppointment опрашивает врача, цель, дату и время и записывает студента на приём
func (e *Engine) BookAppointment(ctx context.Context, sess *Session) Outcome {
	t := &turn{e: e, sess: sess, flow: FlowBooking}

	if sess.StudentID == 0 {
		return e.fail(ctx, t, StatusNoIdentity, msgBookingNoStudent)
	}
	if err := e.directory.Ping(ctx); err != nil {
		return e.fail(ctx, t, StatusUnavailable, msgDatabaseDown)
	}

	flowCtx, cancel := e.flowContext(ctx)
	defer cancel()

	req := &model.AppointmentRequest{StudentID: sess.StudentID}

	query, err := ask(flowCtx, t, step[string]{
		field:     "doctor",
		prompt:    msgAskDoctor,
		repeat:    msgRepeatDoctor,
		interpret: rawText,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}
	req.DoctorQuery = query

	doctors, err := e.directory.FindDoctors(flowCtx, query)
	switch {
	case errors.Is(err, service.ErrDoctorNotFound):
		return e.fail(ctx, t, StatusNotFound, spoken(msgDoctorNotFound, query))
	case err != nil:
		return e.fail(ctx, t, StatusUnavailable, msgDatabaseDown)
	}

	// При нескольких совпадениях берём первого по порядку id и сообщаем об этом
	req.Doctor = doctors[0]
	if len(doctors) > 1 {
		t.say(flowCtx, spoken(msgManyDoctors, query, service.DoctorDisplayName(req.Doctor.Name)))
	}

	req.Purpose, err = ask(flowCtx, t, step[string]{
		field:     "purpose",
		prompt:    msgAskPurpose,
		repeat:    msgRepeatPurpose,
		interpret: rawText,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}

	req.Date, err = ask(flowCtx, t, step[time.Time]{
		field:     "date",
		prompt:    msgAskDate,
		repeat:    msgRepeatDate,
		interpret: e.interpretAppointmentDate,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}

	req.Time, err = ask(flowCtx, t, step[time.Time]{
		field:     "time",
		prompt:    msgAskTime,
		repeat:    msgRepeatTime,
		interpret: e.interpretAppointmentTime,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}

	if _, err := e.directory.ResolveStudent(flowCtx, sess.StudentID); err != nil {
		if errors.Is(err, service.ErrNoIdentity) {
			return e.fail(ctx, t, StatusNoIdentity, msgBookingNoStudent)
		}
		return e.fail(ctx, t, StatusUnavailable, msgDatabaseDown)
	}

	result, err := e.booker.Book(flowCtx, req)
	switch {
	case errors.Is(err, service.ErrSlotConflict):
		return e.fail(ctx, t, StatusSlotConflict, msgSlotTaken)
	case errors.Is(err, service.ErrNoIdentity):
		return e.fail(ctx, t, StatusNoIdentity, msgBookingNoStudent)
	case err != nil:
		e.logger.Error("Booking failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return e.fail(ctx, t, StatusPersistenceFailure, msgBookingFailed)
	}

	slot := result.Appointment.SlotDateTime
	confirmation := spoken(msgBooked,
		result.DoctorName,
		slot.Format(spokenDate),
		slot.Format(spokenTime),
		result.Purpose,
	)
	t.say(ctx, confirmation)

	switch {
	case result.Degraded():
		t.say(ctx, msgCalendarFailed)
	case result.CalendarLink != "":
		t.say(ctx, msgCalendarAdded)
	}

	return e.finish(t, Outcome{Status: StatusCompleted, Message: confirmation, Booking: result})
}

func (e *Engine) interpretAppointmentDate(text string) (time.Time, string) {
	now := e.now()
	parsed, ok := e.parser.ParseDate(text, now)
	if !ok {
		return time.Time{}, msgBadDate
	}

	date := dateOnly(parsed.Day.In(now.Location()))
	// "14 April" в октябре - это апрель следующего года
	if parsed.YearImplied && service.ValidateSlotDate(date, now) != nil {
		date = date.AddDate(1, 0, 0)
	}
	if err := service.ValidateSlotDate(date, now); err != nil {
		return time.Time{}, msgPastDate
	}
	return date, ""
}

// interpretAppointmentTime проверяет часы приёма. Ошибка относится только к времени, дата уже принята.
func (e *Engine) interpretAppointmentTime(text string) (time.Time, string) {
	parsed, ok := e.parser.ParseTime(text, e.now())
	if !ok {
		return time.Time{}, msgBadTime
	}

	switch err := service.ValidateSlotTime(parsed); {
	case errors.Is(err, service.ErrLunchBreak):
		return time.Time{}, msgLunchBreak
	case errors.Is(err, service.ErrOutsideHours):
		return time.Time{}, msgOutsideHour
	}
	return parsed, ""
}
