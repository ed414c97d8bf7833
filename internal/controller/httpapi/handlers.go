package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/transcript"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type bookAppointmentRequest struct {
	Doctor  string `json:"doctor" validate:"required"`
	Purpose string `json:"purpose" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required,datetime=15:04"`
}

type bookingResponse struct {
	Message string `json:"message"`
	*service.BookingResult
}

type applyLeaveRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"required"`
}

type leaveResponse struct {
	Message string `json:"message"`
	*service.LeaveResult
}

// Health проверяет соединение с базой
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Directory.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BookAppointment - запись на приём одним запросом, без диалога
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	loc := h.cfg.Bookings.Location()
	date, _ := time.ParseInLocation(dateLayout, req.Date, loc)
	clock, _ := time.ParseInLocation(timeLayout, req.Time, loc)

	if err := service.ValidateSlotDate(date, h.cfg.Now()); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := service.ValidateSlotTime(clock); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	doctors, err := h.cfg.Directory.FindDoctors(ctx, req.Doctor)
	if err != nil {
		if errors.Is(err, service.ErrDoctorNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("I couldn't find a doctor named %s.", req.Doctor))
			return
		}
		writeError(w, http.StatusInternalServerError, "DB Connection failed")
		return
	}

	studentID := StudentIDFromContext(ctx)
	if !h.resolveStudent(w, r, studentID, "Could not identify a student account to book this appointment.") {
		return
	}

	result, err := h.cfg.Bookings.Book(ctx, &model.AppointmentRequest{
		DoctorQuery: req.Doctor,
		Doctor:      doctors[0],
		Purpose:     req.Purpose,
		Date:        date,
		Time:        clock,
		StudentID:   studentID,
	})
	if err != nil {
		switch {
		case service.IsRuleViolation(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case errors.Is(err, service.ErrSlotConflict):
			writeError(w, http.StatusConflict, "Sorry, that slot is already booked.")
			return
		}
		h.logger.Error("One-shot booking failed", zap.Int64("student_id", studentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An error occurred while booking the appointment.")
		return
	}

	writeJSON(w, http.StatusCreated, bookingResponse{
		Message:       "Your appointment request is submitted successfully.",
		BookingResult: result,
	})
}

// ApplyLeave - заявка на больничный одним запросом
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req applyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	date, _ := time.ParseInLocation(dateLayout, req.Date, h.cfg.Bookings.Location())

	studentID := StudentIDFromContext(ctx)
	if !h.resolveStudent(w, r, studentID, "Could not identify a student account.") {
		return
	}

	result, err := h.cfg.Leaves.Apply(ctx, &model.LeaveRequest{
		Date:      date,
		Reason:    req.Reason,
		StudentID: studentID,
	})
	if err != nil {
		h.logger.Error("One-shot leave application failed", zap.Int64("student_id", studentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An error occurred while applying for leave.")
		return
	}

	writeJSON(w, http.StatusCreated, leaveResponse{
		Message:     "Your leave application is submitted successfully.",
		LeaveResult: result,
	})
}

// ListAppointments отдаёт все записи
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.cfg.Bookings.ListAppointments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list appointments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB Connection failed")
		return
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

// Transcript отдаёт стенограмму голосовой сессии
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, transcript.ErrDisabled.Error())
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	entries, err := h.cfg.Transcripts.List(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, transcript.ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Error("Failed to read transcript", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read transcript")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"entries":    entries,
	})
}

// resolveStudent пишет ответ сам и возвращает false, если студента нет
func (h *Handler) resolveStudent(w http.ResponseWriter, r *http.Request, studentID int64, message string) bool {
	_, err := h.cfg.Directory.ResolveStudent(r.Context(), studentID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, service.ErrNoIdentity):
		writeError(w, http.StatusForbidden, message)
	default:
		writeError(w, http.StatusInternalServerError, "DB Connection failed")
	}
	return false
}
