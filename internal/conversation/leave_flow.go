package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"go.uber.org/zap"
)

// ApplyLeave опрашивает дату и причину и оформляет больничный на один день
func (e *Engine) ApplyLeave(ctx context.Context, sess *Session) Outcome {
	t := &turn{e: e, sess: sess, flow: FlowLeave}

	if sess.StudentID == 0 {
		return e.fail(ctx, t, StatusNoIdentity, msgLeaveNoStudent)
	}
	if err := e.directory.Ping(ctx); err != nil {
		return e.fail(ctx, t, StatusUnavailable, msgDatabaseDown)
	}

	flowCtx, cancel := e.flowContext(ctx)
	defer cancel()

	req := &model.LeaveRequest{StudentID: sess.StudentID}

	var err error
	req.Date, err = ask(flowCtx, t, step[time.Time]{
		field:     "leave_date",
		prompt:    msgAskLeaveDate,
		repeat:    msgRepeatLeaveDate,
		interpret: e.interpretLeaveDate,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}

	req.Reason, err = ask(flowCtx, t, step[string]{
		field:     "reason",
		prompt:    msgAskReason,
		repeat:    msgRepeatReason,
		interpret: rawText,
	})
	if err != nil {
		return e.interrupted(ctx, t, err)
	}

	if _, err := e.directory.ResolveStudent(flowCtx, sess.StudentID); err != nil {
		if errors.Is(err, service.ErrNoIdentity) {
			return e.fail(ctx, t, StatusNoIdentity, msgLeaveNoStudent)
		}
		return e.fail(ctx, t, StatusUnavailable, msgDatabaseDown)
	}

	result, err := e.leaves.Apply(flowCtx, req)
	if err != nil {
		if errors.Is(err, service.ErrNoIdentity) {
			return e.fail(ctx, t, StatusNoIdentity, msgLeaveNoStudent)
		}
		e.logger.Error("Leave application failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return e.fail(ctx, t, StatusPersistenceFailure, msgLeaveFailed)
	}

	confirmation := spoken(msgLeaveRecorded, result.Leave.FromDate.Format(spokenDate), result.Leave.Reason)
	t.say(ctx, confirmation)

	return e.finish(t, Outcome{Status: StatusCompleted, Message: confirmation, Leave: result})
}

// Больничный может быть задним числом, поэтому прошедшие даты разрешены
func (e *Engine) interpretLeaveDate(text string) (time.Time, string) {
	now := e.now()
	parsed, ok := e.parser.ParseDate(text, now)
	if !ok {
		return time.Time{}, msgBadDate
	}
	return dateOnly(parsed.Day.In(now.Location())), ""
}
