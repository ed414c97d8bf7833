package conversation

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type DispatcherState int

const (
	StateGreeting DispatcherState = iota
	StateAwaitingCommand
	StateRunning
	StateExited
)

func (s DispatcherState) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAwaitingCommand:
		return "awaiting_command"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

type Command int

const (
	CommandUnknown Command = iota
	CommandBook
	CommandLeave
	CommandExit
)

// Classify ищет ключевую фразу в реплике без учёта регистра
func Classify(utterance string) Command {
	text := strings.ToLower(utterance)
	switch {
	case strings.Contains(text, "book appointment"):
		return CommandBook
	case strings.Contains(text, "apply for leave"), strings.Contains(text, "leave application"):
		return CommandLeave
	case strings.Contains(text, "exit"):
		return CommandExit
	default:
		return CommandUnknown
	}
}

// RunSession приветствует пользователя и запускает диалоги по командам до "exit".
// Ошибка возвращается, только если источник реплик закрылся или ctx отменён.
func (e *Engine) RunSession(ctx context.Context, sess *Session) ([]Outcome, error) {
	t := &turn{e: e, sess: sess}
	var outcomes []Outcome

	e.logState(sess, StateGreeting)
	t.say(ctx, msgGreeting)

	for {
		e.logState(sess, StateAwaitingCommand)
		text, heard, err := t.listen(ctx)
		if err != nil {
			e.logger.Info("Voice session closed",
				zap.String("session_id", sess.ID),
				zap.Int("flows", len(outcomes)),
				zap.Error(err),
			)
			return outcomes, err
		}
		if !heard {
			t.say(ctx, msgCommandSilent)
			continue
		}

		switch Classify(text) {
		case CommandBook:
			e.logState(sess, StateRunning)
			outcomes = append(outcomes, e.BookAppointment(ctx, sess))
		case CommandLeave:
			e.logState(sess, StateRunning)
			outcomes = append(outcomes, e.ApplyLeave(ctx, sess))
		case CommandExit:
			e.logState(sess, StateExited)
			t.say(ctx, msgFarewell)
			return outcomes, nil
		default:
			t.say(ctx, msgUnknown)
		}
	}
}

func (e *Engine) logState(sess *Session, state DispatcherState) {
	e.logger.Debug("Dispatcher state",
		zap.String("session_id", sess.ID),
		zap.Stringer("state", state),
	)
}
