package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/temporal"
	"go.uber.org/zap"
)

// silence в сценарии означает "ничего не услышано"
const silence = "<silence>"

type scriptedListener struct {
	script []string
	pos    int
}

func listenerOf(lines ...string) *scriptedListener {
	return &scriptedListener{script: lines}
}

func (l *scriptedListener) Listen(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if l.pos >= len(l.script) {
		return "", false, ErrSourceClosed
	}
	line := l.script[l.pos]
	l.pos++
	if line == silence {
		return "", false, nil
	}
	return line, true, nil
}

type recordingSpeaker struct {
	said []string
}

func (s *recordingSpeaker) Say(_ context.Context, text string) {
	s.said = append(s.said, text)
}

func (s *recordingSpeaker) count(text string) int {
	n := 0
	for _, line := range s.said {
		if line == text {
			n++
		}
	}
	return n
}

func (s *recordingSpeaker) last() string {
	if len(s.said) == 0 {
		return ""
	}
	return s.said[len(s.said)-1]
}

type fakeDirectory struct {
	doctors    []*model.User
	students   map[int64]bool
	pingErr    error
	resolveErr error
	searches   []string
}

func newDirectory(doctors ...*model.User) *fakeDirectory {
	return &fakeDirectory{doctors: doctors, students: map[int64]bool{5: true}}
}

func (d *fakeDirectory) Ping(context.Context) error { return d.pingErr }

func (d *fakeDirectory) FindDoctors(_ context.Context, query string) ([]*model.User, error) {
	d.searches = append(d.searches, query)
	needle := strings.ToLower(service.NormalizeDoctorQuery(query))
	var found []*model.User
	for _, doc := range d.doctors {
		if needle != "" && strings.Contains(strings.ToLower(doc.Name), needle) {
			found = append(found, doc)
		}
	}
	if len(found) == 0 {
		return nil, service.ErrDoctorNotFound
	}
	return found, nil
}

func (d *fakeDirectory) ResolveStudent(_ context.Context, id int64) (*model.User, error) {
	if d.resolveErr != nil {
		return nil, d.resolveErr
	}
	if !d.students[id] {
		return nil, service.ErrNoIdentity
	}
	return &model.User{ID: id, Name: "Ravi", Role: model.RoleStudent}, nil
}

type fakeBooker struct {
	mu       sync.Mutex
	loc      *time.Location
	booked   map[string]*model.Appointment
	requests []*model.AppointmentRequest
	err      error
	calErr   error
	link     string
	nextID   int64
}

func newBooker() *fakeBooker {
	return &fakeBooker{loc: time.UTC, booked: map[string]*model.Appointment{}}
}

func (b *fakeBooker) Location() *time.Location { return b.loc }

func (b *fakeBooker) Book(_ context.Context, req *model.AppointmentRequest) (*service.BookingResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, req)
	if b.err != nil {
		return nil, b.err
	}

	slot := req.SlotDateTime(b.loc)
	key := fmt.Sprintf("%d/%s", req.Doctor.ID, slot.Format(time.RFC3339))
	if _, taken := b.booked[key]; taken {
		return nil, service.ErrSlotConflict
	}

	b.nextID++
	appointment := &model.Appointment{
		ID:           b.nextID,
		StudentID:    req.StudentID,
		DoctorID:     req.Doctor.ID,
		SlotDateTime: slot,
		Status:       model.AppointmentStatusPending,
	}
	b.booked[key] = appointment

	return &service.BookingResult{
		Appointment:  appointment,
		DoctorName:   service.DoctorDisplayName(req.Doctor.Name),
		Purpose:      req.Purpose,
		CalendarLink: b.link,
		CalendarErr:  b.calErr,
	}, nil
}

type fakeLeaves struct {
	requests []*model.LeaveRequest
	err      error
}

func (f *fakeLeaves) Apply(_ context.Context, req *model.LeaveRequest) (*service.LeaveResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &service.LeaveResult{
		HealthRecord: &model.HealthRecord{ID: 70, StudentID: req.StudentID, Diagnosis: model.PlaceholderDiagnosis},
		Leave: &model.MedicalLeave{
			ID:             12,
			StudentID:      req.StudentID,
			HealthRecordID: 70,
			FromDate:       req.Date,
			ToDate:         req.Date,
			Reason:         req.Reason,
			Status:         model.LeaveStatusPending,
		},
	}, nil
}

type memoryRecorder struct {
	entries []string
}

func (r *memoryRecorder) Record(_ context.Context, sessionID, speaker, text string) {
	r.entries = append(r.entries, sessionID+"|"+speaker+"|"+text)
}

var (
	testNow   = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	drSmith   = &model.User{ID: 3, Name: "Smith", Role: model.RoleDoctor}
	drSmithee = &model.User{ID: 8, Name: "Smitheers", Role: model.RoleDoctor}
)

type harness struct {
	engine    *Engine
	directory *fakeDirectory
	booker    *fakeBooker
	leaves    *fakeLeaves
	recorder  *memoryRecorder
}

func newHarness(opts Options, doctors ...*model.User) *harness {
	h := &harness{
		directory: newDirectory(doctors...),
		booker:    newBooker(),
		leaves:    &fakeLeaves{},
		recorder:  &memoryRecorder{},
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	h.engine = NewEngine(h.directory, h.booker, h.leaves, temporal.NewParser(), h.recorder, nil, opts, zap.NewNop())
	return h
}

func session(listener Listener) (*Session, *recordingSpeaker) {
	speaker := &recordingSpeaker{}
	return &Session{ID: "test-session", StudentID: 5, Listener: listener, Speaker: speaker}, speaker
}
