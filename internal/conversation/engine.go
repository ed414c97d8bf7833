// Package conversation ведёт голосовые диалоги записи к врачу и оформления больничного
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/metrics"
	"github.com/Freeeeeet/clinic_assistant/internal/transcript"
	"go.uber.org/zap"
)

// errStepExhausted - шаг исчерпал MaxAttempts
var errStepExhausted = errors.New("conversation: step attempts exhausted")

type Options struct {
	// MaxAttempts - сколько раз шаг слушает пользователя, 0 - без ограничения
	MaxAttempts int
	// FlowTimeout ограничивает один диалог по времени, 0 - без ограничения
	FlowTimeout time.Duration
	Now         func() time.Time
}

// Session - одна голосовая сессия с уже известным студентом
type Session struct {
	ID        string
	StudentID int64
	Listener  Listener
	Speaker   Speaker
}

type Engine struct {
	directory Directory
	booker    Booker
	leaves    LeaveApplier
	parser    Parser
	recorder  Recorder
	metrics   *metrics.Metrics
	opts      Options
	logger    *zap.Logger
}

func NewEngine(
	directory Directory,
	booker Booker,
	leaves LeaveApplier,
	parser Parser,
	recorder Recorder,
	m *metrics.Metrics,
	opts Options,
	logger *zap.Logger,
) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		directory: directory,
		booker:    booker,
		leaves:    leaves,
		parser:    parser,
		recorder:  recorder,
		metrics:   m,
		opts:      opts,
		logger:    logger,
	}
}

// turn - обмен репликами внутри одного диалога
type turn struct {
	e    *Engine
	sess *Session
	flow Flow
}

func (t *turn) say(ctx context.Context, text string) {
	if t.e.recorder != nil {
		t.e.recorder.Record(ctx, t.sess.ID, transcript.SpeakerAssistant, text)
	}
	t.sess.Speaker.Say(ctx, text)
}

func (t *turn) listen(ctx context.Context) (string, bool, error) {
	text, heard, err := t.sess.Listener.Listen(ctx)
	if err != nil {
		return "", false, err
	}
	// Пустая реплика считается тишиной
	text = strings.TrimSpace(text)
	heard = heard && text != ""
	if heard && t.e.recorder != nil {
		t.e.recorder.Record(ctx, t.sess.ID, transcript.SpeakerUser, text)
	}
	return text, heard, nil
}

// step - один шаг опроса: подсказка, повтор при тишине и разбор ответа
type step[T any] struct {
	field  string
	prompt string
	repeat string
	// interpret возвращает значение либо текст исправляющей подсказки
	interpret func(text string) (T, string)
}

// ask повторяет шаг, пока ответ не пройдёт interpret
func ask[T any](ctx context.Context, t *turn, st step[T]) (T, error) {
	var zero T

	t.say(ctx, st.prompt)
	for attempt := 1; ; attempt++ {
		if t.e.opts.MaxAttempts > 0 && attempt > t.e.opts.MaxAttempts {
			return zero, errStepExhausted
		}

		text, heard, err := t.listen(ctx)
		if err != nil {
			return zero, err
		}
		if !heard {
			t.e.metrics.ObserveRetry(st.field, "no_input")
			t.say(ctx, st.repeat)
			continue
		}

		value, correction := st.interpret(text)
		if correction != "" {
			t.e.metrics.ObserveRetry(st.field, "invalid")
			t.say(ctx, correction)
			continue
		}
		return value, nil
	}
}

func rawText(text string) (string, string) {
	return text, ""
}

// flowContext ограничивает диалог FlowTimeout
func (e *Engine) flowContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.FlowTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.FlowTimeout)
	}
	return context.WithCancel(ctx)
}

// interrupted превращает ошибку шага в итог диалога
func (e *Engine) interrupted(ctx context.Context, t *turn, err error) Outcome {
	if errors.Is(err, errStepExhausted) || errors.Is(err, context.DeadlineExceeded) {
		t.say(ctx, msgTimedOut)
		return e.finish(t, Outcome{Status: StatusTimeout, Message: msgTimedOut})
	}

	e.logger.Info("Conversation interrupted",
		zap.String("session_id", t.sess.ID),
		zap.String("flow", string(t.flow)),
		zap.Error(err),
	)
	return e.finish(t, Outcome{Status: StatusAborted, Message: msgAborted})
}

// fail произносит сообщение и завершает диалог
func (e *Engine) fail(ctx context.Context, t *turn, status Status, message string) Outcome {
	t.say(ctx, message)
	return e.finish(t, Outcome{Status: status, Message: message})
}

func (e *Engine) finish(t *turn, out Outcome) Outcome {
	out.Flow = t.flow
	e.metrics.ObserveFlow(string(out.Flow), string(out.Status))
	e.logger.Info("Conversation finished",
		zap.String("session_id", t.sess.ID),
		zap.String("flow", string(out.Flow)),
		zap.String("status", string(out.Status)),
	)
	return out
}

// now - текущее время в часовом поясе клиники
func (e *Engine) now() time.Time {
	return e.opts.Now().In(e.booker.Location())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func spoken(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
