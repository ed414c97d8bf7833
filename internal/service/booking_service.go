package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/calendar"
	"github.com/Freeeeeet/clinic_assistant/internal/metrics"
	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CalendarMirror создаёт событие во внешнем календаре
type CalendarMirror interface {
	CreateEvent(ctx context.Context, event calendar.Event) (string, error)
	Enabled() bool
}

// BookingResult - итог успешной записи
type BookingResult struct {
	Appointment  *model.Appointment `json:"appointment"`
	DoctorName   string             `json:"doctor_name"`
	Purpose      string             `json:"purpose"`
	CalendarLink string             `json:"calendar_link,omitempty"`
	// CalendarErr заполняется, когда запись сохранена, а событие в календаре - нет
	CalendarErr error `json:"-"`
}

// Degraded - запись есть, но календарь не обновился
func (r *BookingResult) Degraded() bool {
	return r.CalendarErr != nil
}

type BookingService struct {
	db           base.TxBeginner
	appointments *repository.AppointmentRepository
	slots        *repository.DoctorSlotRepository
	mirror       CalendarMirror
	metrics      *metrics.Metrics
	loc          *time.Location
	tracer       trace.Tracer
	logger       *zap.Logger
}

func NewBookingService(
	db base.TxBeginner,
	appointments *repository.AppointmentRepository,
	slots *repository.DoctorSlotRepository,
	mirror CalendarMirror,
	m *metrics.Metrics,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	if mirror == nil {
		mirror = calendar.Disabled{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		db:           db,
		appointments: appointments,
		slots:        slots,
		mirror:       mirror,
		metrics:      m,
		loc:          loc,
		tracer:       otel.Tracer("clinic.internal.service.booking"),
		logger:       logger,
	}
}

// Location - часовой пояс, в котором собирается время приёма
func (s *BookingService) Location() *time.Location {
	return s.loc
}

// Book проверяет слот и создаёт запись в одной транзакции, затем зеркалит её в календарь
func (s *BookingService) Book(ctx context.Context, req *model.AppointmentRequest) (*BookingResult, error) {
	if req == nil || req.Doctor == nil {
		return nil, fmt.Errorf("%w: doctor is not resolved", ErrInvalidRequest)
	}
	if req.StudentID == 0 {
		return nil, ErrNoIdentity
	}

	slot := req.SlotDateTime(s.loc)
	if err := ValidateSlotTime(slot); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "booking.book", trace.WithAttributes(
		attribute.Int64("doctor_id", req.Doctor.ID),
		attribute.String("slot", slot.Format(time.RFC3339)),
	))
	defer span.End()

	started := time.Now()
	appointment, err := s.reserve(ctx, req.StudentID, req.Doctor.ID, slot)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotConflict) {
			s.metrics.ObserveBooking("slot_conflict", elapsed)
			s.logger.Info("Slot already booked",
				zap.Int64("doctor_id", req.Doctor.ID),
				zap.Time("slot", slot),
			)
		} else {
			s.metrics.ObserveBooking("persistence_failure", elapsed)
			s.logger.Error("Booking transaction failed",
				zap.Int64("doctor_id", req.Doctor.ID),
				zap.Int64("student_id", req.StudentID),
				zap.Time("slot", slot),
				zap.Error(err),
			)
		}
		return nil, err
	}
	s.metrics.ObserveBooking("completed", elapsed)

	s.logger.Info("Appointment booked",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("student_id", req.StudentID),
		zap.Int64("doctor_id", req.Doctor.ID),
		zap.Time("slot", slot),
	)

	result := &BookingResult{
		Appointment: appointment,
		DoctorName:  DoctorDisplayName(req.Doctor.Name),
		Purpose:     req.Purpose,
	}
	s.mirrorToCalendar(ctx, result)

	return result, nil
}

// reserve - проверка слота и вставка. Проверка в приложении - быстрый путь,
// гарантию даёт уникальный индекс appointments_doctor_slot_active_idx.
func (s *BookingService) reserve(ctx context.Context, studentID, doctorID int64, slot time.Time) (*model.Appointment, error) {
	// Начинаем транзакцию
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %w", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.appointments.WithTx(tx).FindActiveBySlot(ctx, doctorID, slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// Проверяем что слот свободен
	if existing != nil {
		return nil, ErrSlotConflict
	}

	appointment := &model.Appointment{
		StudentID:    studentID,
		DoctorID:     doctorID,
		SlotDateTime: slot,
		Status:       model.AppointmentStatusPending,
	}

	if err := s.appointments.WithTx(tx).Create(ctx, appointment); err != nil {
		// Параллельная сессия успела занять слот между проверкой и вставкой
		if base.IsUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	booked, err := s.slots.WithTx(tx).MarkBooked(ctx, doctorID, slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	// Коммитим транзакцию
	if err := tx.Commit(ctx); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("%w: commit transaction: %w", ErrPersistence, err)
	}

	s.logger.Debug("Doctor slot marked booked",
		zap.Int64("doctor_slot_id", booked.ID),
		zap.Int64("appointment_id", appointment.ID),
	)
	return appointment, nil
}

// mirrorToCalendar - best effort, ошибка только логируется
func (s *BookingService) mirrorToCalendar(ctx context.Context, result *BookingResult) {
	if !s.mirror.Enabled() {
		s.metrics.ObserveCalendar("disabled")
		return
	}

	link, err := s.mirror.CreateEvent(ctx, calendar.Event{
		AppointmentID: result.Appointment.ID,
		DoctorName:    result.DoctorName,
		Purpose:       result.Purpose,
		Start:         result.Appointment.SlotDateTime,
	})
	if err != nil {
		s.metrics.ObserveCalendar("failed")
		s.logger.Warn("Failed to mirror appointment to calendar",
			zap.Int64("appointment_id", result.Appointment.ID),
			zap.Error(err),
		)
		result.CalendarErr = err
		return
	}

	s.metrics.ObserveCalendar("created")
	result.CalendarLink = link
}

// ListAppointments получает все записи
func (s *BookingService) ListAppointments(ctx context.Context) ([]*model.Appointment, error) {
	appointments, err := s.appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return appointments, nil
}

// ReconcileSlots пересобирает индекс doctor_slots. Вызывается планировщиком.
func (s *BookingService) ReconcileSlots(ctx context.Context) (int64, error) {
	return s.slots.Reconcile(ctx)
}
