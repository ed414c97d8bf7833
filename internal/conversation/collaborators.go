package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/temporal"
)

// ErrSourceClosed - источник реплик закрыт, продолжать диалог некому
var ErrSourceClosed = errors.New("conversation: utterance source closed")

// Listener блокируется до следующей реплики.
// heard=false - ничего не услышано; ошибка только при закрытом источнике или отменённом ctx.
type Listener interface {
	Listen(ctx context.Context) (text string, heard bool, err error)
}

// Speaker произносит подсказку пользователю
type Speaker interface {
	Say(ctx context.Context, text string)
}

// SpeakerFunc позволяет использовать функцию как Speaker
type SpeakerFunc func(ctx context.Context, text string)

func (f SpeakerFunc) Say(ctx context.Context, text string) { f(ctx, text) }

// Parser разбирает дату и время из свободного текста
type Parser interface {
	ParseDate(text string, now time.Time) (temporal.Date, bool)
	ParseTime(text string, now time.Time) (time.Time, bool)
}

// Recorder сохраняет стенограмму сессии
type Recorder interface {
	Record(ctx context.Context, sessionID, speaker, text string)
}

// Directory - поиск врачей и проверка студента
type Directory interface {
	Ping(ctx context.Context) error
	FindDoctors(ctx context.Context, query string) ([]*model.User, error)
	ResolveStudent(ctx context.Context, studentID int64) (*model.User, error)
}

type Booker interface {
	Book(ctx context.Context, req *model.AppointmentRequest) (*service.BookingResult, error)
	Location() *time.Location
}

type LeaveApplier interface {
	Apply(ctx context.Context, req *model.LeaveRequest) (*service.LeaveResult, error)
}

// Utterance - одно сообщение от транспорта
type Utterance struct {
	Text  string
	Heard bool
}

// InboxListener превращает поток сообщений транспорта в блокирующий Listener.
// Если за silence ничего не пришло, Listen возвращает "ничего не услышано".
type InboxListener struct {
	inbox   <-chan Utterance
	silence time.Duration
}

func NewInboxListener(inbox <-chan Utterance, silence time.Duration) *InboxListener {
	return &InboxListener{inbox: inbox, silence: silence}
}

func (l *InboxListener) Listen(ctx context.Context) (string, bool, error) {
	var timeout <-chan time.Time
	if l.silence > 0 {
		timer := time.NewTimer(l.silence)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case u, ok := <-l.inbox:
		if !ok {
			return "", false, ErrSourceClosed
		}
		text := strings.TrimSpace(u.Text)
		return text, u.Heard && text != "", nil
	case <-timeout:
		return "", false, nil
	}
}
