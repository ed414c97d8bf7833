// Package calendar зеркалит подтверждённые записи во внешний календарь.
// Ошибки календаря никогда не отменяют запись на приём.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrDisabled - интеграция с календарём не настроена
var ErrDisabled = errors.New("calendar integration unavailable")

// Event - данные записи для календаря
type Event struct {
	AppointmentID int64
	DoctorName    string
	Purpose       string
	Start         time.Time
}

// Mirror создаёт событие и возвращает ссылку на него
type Mirror interface {
	CreateEvent(ctx context.Context, event Event) (string, error)
	Enabled() bool
}

// New создаёт Google-календарь, а при ошибке настройки - выключенную заглушку
func New(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, logger *zap.Logger) Mirror {
	if credentialsFile == "" {
		logger.Info("Calendar mirror disabled, no credentials file configured")
		return Disabled{}
	}

	mirror, err := NewGoogleMirror(ctx, calendarID, loc,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		logger.Warn("Calendar mirror disabled, setup failed", zap.Error(err))
		return Disabled{}
	}

	logger.Info("Calendar mirror enabled", zap.String("calendar_id", calendarID))
	return mirror
}

// GoogleMirror пишет события в Google Calendar
type GoogleMirror struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
}

func NewGoogleMirror(ctx context.Context, calendarID string, loc *time.Location, opts ...option.ClientOption) (*GoogleMirror, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleMirror{
		events:     svc.Events,
		calendarID: calendarID,
		loc:        loc,
	}, nil
}

func (m *GoogleMirror) Enabled() bool { return true }

// CreateEvent создаёт получасовое событие и возвращает htmlLink
func (m *GoogleMirror) CreateEvent(ctx context.Context, event Event) (string, error) {
	start := event.Start.In(m.loc)
	end := start.Add(model.AppointmentDuration)

	body := &gcal.Event{
		Summary:     fmt.Sprintf("Appointment with %s", event.DoctorName),
		Description: fmt.Sprintf("Purpose: %s.", event.Purpose),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: m.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: m.loc.String(),
		},
	}

	created, err := m.events.Insert(m.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}

	return created.HtmlLink, nil
}

// Disabled - календарь не настроен
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) CreateEvent(context.Context, Event) (string, error) {
	return "", ErrDisabled
}
