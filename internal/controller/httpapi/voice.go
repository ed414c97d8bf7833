package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Типы websocket-кадров
const (
	frameUtterance = "utterance"
	frameSilence   = "silence"
	frameSession   = "session"
	framePrompt    = "prompt"
	frameResult    = "result"
)

const writeTimeout = 10 * time.Second

type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type serverFrame struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Text      string                 `json:"text,omitempty"`
	Outcomes  []conversation.Outcome `json:"outcomes,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Клиенты - мобильное приложение и веб-панель с других origin, доступ закрыт JWT
	CheckOrigin: func(r *http.Request) bool { return true },
}

type voiceRunner func(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error)

// VoiceSession - полный диалог с выбором команды до "exit"
func (h *Handler) VoiceSession(w http.ResponseWriter, r *http.Request) {
	h.serveVoice(w, r, h.cfg.Conversations.RunSession)
}

// VoiceBookAppointment - один диалог записи на приём
func (h *Handler) VoiceBookAppointment(w http.ResponseWriter, r *http.Request) {
	h.serveVoice(w, r, func(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error) {
		return []conversation.Outcome{h.cfg.Conversations.BookAppointment(ctx, sess)}, nil
	})
}

// VoiceApplyLeave - один диалог оформления больничного
func (h *Handler) VoiceApplyLeave(w http.ResponseWriter, r *http.Request) {
	h.serveVoice(w, r, func(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error) {
		return []conversation.Outcome{h.cfg.Conversations.ApplyLeave(ctx, sess)}, nil
	})
}

func (h *Handler) serveVoice(w http.ResponseWriter, r *http.Request, run voiceRunner) {
	studentID := StudentIDFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := h.logger.With(zap.String("session_id", sessionID), zap.Int64("student_id", studentID))

	ctx := r.Context()
	var cancel context.CancelFunc
	if h.cfg.SessionTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.cfg.SessionTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	inbox := make(chan conversation.Utterance)
	go readFrames(ctx, conn, inbox, logger)

	send := func(frame serverFrame) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug("Failed to write websocket frame", zap.Error(err))
		}
	}

	send(serverFrame{Type: frameSession, SessionID: sessionID})

	sess := &conversation.Session{
		ID:        sessionID,
		StudentID: studentID,
		Listener:  conversation.NewInboxListener(inbox, h.cfg.SilenceTimeout),
		Speaker: conversation.SpeakerFunc(func(_ context.Context, text string) {
			send(serverFrame{Type: framePrompt, Text: text})
		}),
	}

	logger.Info("Voice session started", zap.String("path", r.URL.Path))
	outcomes, err := run(ctx, sess)

	result := serverFrame{Type: frameResult, SessionID: sessionID, Outcomes: outcomes}
	if err != nil {
		result.Error = err.Error()
	}
	send(result)

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
		time.Now().Add(writeTimeout),
	)
	logger.Info("Voice session ended",
		zap.Int("flows", len(outcomes)),
		zap.Int("completed", conversation.CountCompleted(outcomes)),
	)
}

// readFrames переносит кадры клиента в inbox. Закрытие соединения закрывает inbox.
func readFrames(ctx context.Context, conn *websocket.Conn, inbox chan<- conversation.Utterance, logger *zap.Logger) {
	defer close(inbox)

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Websocket read stopped", zap.Error(err))
			}
			return
		}

		var u conversation.Utterance
		switch frame.Type {
		case frameUtterance:
			u = conversation.Utterance{Text: frame.Text, Heard: true}
		case frameSilence:
			u = conversation.Utterance{}
		default:
			logger.Debug("Unknown websocket frame", zap.String("type", frame.Type))
			continue
		}

		select {
		case inbox <- u:
		case <-ctx.Done():
			return
		}
	}
}
