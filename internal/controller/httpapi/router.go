// Package httpapi - HTTP и websocket вход в голосовой ассистент
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/transcript"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Conversations запускает голосовые диалоги
type Conversations interface {
	RunSession(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error)
	BookAppointment(ctx context.Context, sess *conversation.Session) conversation.Outcome
	ApplyLeave(ctx context.Context, sess *conversation.Session) conversation.Outcome
}

type Bookings interface {
	Book(ctx context.Context, req *model.AppointmentRequest) (*service.BookingResult, error)
	ListAppointments(ctx context.Context) ([]*model.Appointment, error)
	Location() *time.Location
}

type Leaves interface {
	Apply(ctx context.Context, req *model.LeaveRequest) (*service.LeaveResult, error)
}

type Directory interface {
	Ping(ctx context.Context) error
	FindDoctors(ctx context.Context, query string) ([]*model.User, error)
	ResolveStudent(ctx context.Context, studentID int64) (*model.User, error)
}

type Transcripts interface {
	List(ctx context.Context, sessionID string) ([]transcript.Entry, error)
}

type Config struct {
	Conversations Conversations
	Bookings      Bookings
	Leaves        Leaves
	Directory     Directory
	Transcripts   Transcripts
	JWTSecret     string
	// SilenceTimeout - сколько ждать реплику, прежде чем считать её тишиной
	SilenceTimeout time.Duration
	// SessionTimeout ограничивает одну websocket-сессию целиком
	SessionTimeout time.Duration
	MetricsHandler http.Handler
	Now            func() time.Time
	Logger         *zap.Logger
}

type Handler struct {
	cfg      Config
	validate *validator.Validate
	logger   *zap.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		cfg:      cfg,
		validate: validator.New(),
		logger:   cfg.Logger,
	}
}

// NewRouter собирает все маршруты
func NewRouter(cfg Config) http.Handler {
	h := NewHandler(cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	// Публичные маршруты
	r.Group(func(public chi.Router) {
		public.Get("/health", h.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Маршруты студента, student id берётся из JWT
	r.Group(func(student chi.Router) {
		student.Use(StudentJWT(cfg.JWTSecret))

		student.Get("/voice/session", h.VoiceSession)
		student.Get("/voice/book-appointment", h.VoiceBookAppointment)
		student.Get("/voice/apply-leave", h.VoiceApplyLeave)

		student.Post("/appointments", h.BookAppointment)
		student.Get("/appointments", h.ListAppointments)
		student.Post("/leaves", h.ApplyLeave)
		student.Get("/sessions/{sessionID}/transcript", h.Transcript)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("Request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}
