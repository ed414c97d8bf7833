package telegram

import (
	"context"
	"sync"

	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
)

const inboxSize = 16

// chatSession - активный диалог в чате
type chatSession struct {
	id     string
	inbox  chan conversation.Utterance
	cancel context.CancelFunc
}

// Sessions хранит активные диалоги по chatID
type Sessions struct {
	mu    sync.RWMutex
	chats map[int64]*chatSession
}

func NewSessions() *Sessions {
	return &Sessions{
		chats: make(map[int64]*chatSession),
	}
}

// Open регистрирует новый диалог. false - в чате уже идёт диалог.
func (s *Sessions) Open(chatID int64, sessionID string, cancel context.CancelFunc) (<-chan conversation.Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chats[chatID]; exists {
		return nil, false
	}

	session := &chatSession{
		id:     sessionID,
		inbox:  make(chan conversation.Utterance, inboxSize),
		cancel: cancel,
	}
	s.chats[chatID] = session
	return session.inbox, true
}

// Active проверяет, идёт ли в чате диалог
func (s *Sessions) Active(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.chats[chatID]
	return exists
}

// Deliver передаёт сообщение в диалог. Не блокируется: при переполненном inbox сообщение отбрасывается.
func (s *Sessions) Deliver(chatID int64, text string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.chats[chatID]
	if !exists {
		return false
	}

	select {
	case session.inbox <- conversation.Utterance{Text: text, Heard: true}:
		return true
	default:
		return false
	}
}

// Close отменяет диалог и удаляет его. Повторный вызов ничего не делает.
func (s *Sessions) Close(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.chats[chatID]
	if !exists {
		return false
	}

	session.cancel()
	delete(s.chats, chatID)
	return true
}

// Finish удаляет завершившийся диалог, если в чате не открыт уже новый
func (s *Sessions) Finish(chatID int64, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.chats[chatID]
	if !exists || session.id != sessionID {
		return
	}

	session.cancel()
	delete(s.chats, chatID)
}

// CloseAll отменяет все диалоги, вызывается при остановке бота
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chatID, session := range s.chats {
		session.cancel()
		delete(s.chats, chatID)
	}
}
