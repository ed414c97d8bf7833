package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/transcript"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

var testNow = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

func tokenFor(t *testing.T, secret string, studentID int64) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(studentID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type fakeDirectory struct {
	pingErr  error
	doctors  []*model.User
	findErr  error
	students map[int64]bool
}

func (d *fakeDirectory) Ping(context.Context) error { return d.pingErr }

func (d *fakeDirectory) FindDoctors(context.Context, string) ([]*model.User, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	if len(d.doctors) == 0 {
		return nil, service.ErrDoctorNotFound
	}
	return d.doctors, nil
}

func (d *fakeDirectory) ResolveStudent(_ context.Context, id int64) (*model.User, error) {
	if !d.students[id] {
		return nil, service.ErrNoIdentity
	}
	return &model.User{ID: id, Role: model.RoleStudent}, nil
}

type fakeBookings struct {
	err      error
	listErr  error
	list     []*model.Appointment
	requests []*model.AppointmentRequest
}

func (b *fakeBookings) Location() *time.Location { return time.UTC }

func (b *fakeBookings) Book(_ context.Context, req *model.AppointmentRequest) (*service.BookingResult, error) {
	b.requests = append(b.requests, req)
	if b.err != nil {
		return nil, b.err
	}
	return &service.BookingResult{
		Appointment: &model.Appointment{
			ID:           21,
			StudentID:    req.StudentID,
			DoctorID:     req.Doctor.ID,
			SlotDateTime: req.SlotDateTime(time.UTC),
			Status:       model.AppointmentStatusPending,
		},
		DoctorName: service.DoctorDisplayName(req.Doctor.Name),
		Purpose:    req.Purpose,
	}, nil
}

func (b *fakeBookings) ListAppointments(context.Context) ([]*model.Appointment, error) {
	return b.list, b.listErr
}

type fakeLeaves struct {
	err      error
	requests []*model.LeaveRequest
}

func (l *fakeLeaves) Apply(_ context.Context, req *model.LeaveRequest) (*service.LeaveResult, error) {
	l.requests = append(l.requests, req)
	if l.err != nil {
		return nil, l.err
	}
	return &service.LeaveResult{
		HealthRecord: &model.HealthRecord{ID: 70},
		Leave:        &model.MedicalLeave{ID: 12, HealthRecordID: 70, FromDate: req.Date, ToDate: req.Date, Reason: req.Reason},
	}, nil
}

type fakeTranscripts struct {
	entries map[string][]transcript.Entry
}

func (f *fakeTranscripts) List(_ context.Context, sessionID string) ([]transcript.Entry, error) {
	return f.entries[sessionID], nil
}

// echoConversations повторяет реплики, пока не услышит "exit"
type echoConversations struct{}

func (echoConversations) RunSession(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error) {
	sess.Speaker.Say(ctx, "hello")
	for {
		text, heard, err := sess.Listener.Listen(ctx)
		if err != nil {
			return nil, err
		}
		if !heard {
			sess.Speaker.Say(ctx, "silence")
			continue
		}
		sess.Speaker.Say(ctx, "you said "+text)
		if strings.Contains(text, "exit") {
			return nil, nil
		}
	}
}

func (echoConversations) BookAppointment(ctx context.Context, sess *conversation.Session) conversation.Outcome {
	sess.Speaker.Say(ctx, "Please tell me the doctor's name.")
	return conversation.Outcome{
		Flow:    conversation.FlowBooking,
		Status:  conversation.StatusNoIdentity,
		Message: strconv.FormatInt(sess.StudentID, 10),
	}
}

func (echoConversations) ApplyLeave(ctx context.Context, sess *conversation.Session) conversation.Outcome {
	return conversation.Outcome{Flow: conversation.FlowLeave, Status: conversation.StatusCompleted}
}

type testAPI struct {
	directory   *fakeDirectory
	bookings    *fakeBookings
	leaves      *fakeLeaves
	transcripts *fakeTranscripts
	server      http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		directory: &fakeDirectory{
			doctors:  []*model.User{{ID: 3, Name: "Smith", Role: model.RoleDoctor}},
			students: map[int64]bool{5: true},
		},
		bookings:    &fakeBookings{},
		leaves:      &fakeLeaves{},
		transcripts: &fakeTranscripts{entries: map[string][]transcript.Entry{}},
	}
	api.server = NewRouter(Config{
		Conversations:  echoConversations{},
		Bookings:       api.bookings,
		Leaves:         api.leaves,
		Directory:      api.directory,
		Transcripts:    api.transcripts,
		JWTSecret:      testSecret,
		SilenceTimeout: time.Second,
		SessionTimeout: 5 * time.Second,
		Now:            func() time.Time { return testNow },
		Logger:         zap.NewNop(),
	})
	return api
}

func (api *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, testSecret, 5))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	api.server.ServeHTTP(rec, req)
	return rec
}
