// Package telegram - текстовый вход в ассистента через Telegram-бота
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	textNotLinked      = "Your Telegram account is not linked to a student account. Please contact the clinic."
	textDatabaseDown   = "Database connection failed."
	textAlreadyRunning = "The assistant is already listening. Say exit or send /cancel to stop."
	textNoSession      = "Send /start to talk to the assistant."
	textCancelled      = "Session cancelled."
	textNothingToStop  = "There is no active session."
	textHelp           = "Send /start and then type: book appointment, apply for leave, or exit.\n" +
		"/cancel stops the current session."
)

// Conversations запускает диалог сессии
type Conversations interface {
	RunSession(ctx context.Context, sess *conversation.Session) ([]conversation.Outcome, error)
}

// Students находит студента по Telegram ID
type Students interface {
	StudentByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

// Sender отправляет сообщения в чат
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type BotController struct {
	bot            *bot.Bot
	sender         Sender
	conversations  Conversations
	students       Students
	sessions       *Sessions
	sessionTimeout time.Duration
	rootCtx        context.Context
	logger         *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	conversations Conversations,
	students Students,
	sessionTimeout time.Duration,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:            botInstance,
		sender:         botInstance,
		conversations:  conversations,
		students:       students,
		sessions:       NewSessions(),
		sessionTimeout: sessionTimeout,
		rootCtx:        context.Background(),
		logger:         logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.rootCtx = ctx

	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.HandleCancel)

	// Остальной текст - реплики активного диалога
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.HandleTextMessage)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Talk to the clinic assistant"},
		{Command: "cancel", Description: "Stop the current session"},
		{Command: "help", Description: "How to use the assistant"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	c.sessions.CloseAll()
	return nil
}

// HandleStart открывает голосовую сессию для привязанного студента
func (c *BotController) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	if c.sessions.Active(chatID) {
		c.sendMessage(ctx, chatID, textAlreadyRunning)
		return
	}

	student, err := c.students.StudentByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, service.ErrNoIdentity) {
			c.sendMessage(ctx, chatID, textNotLinked)
			return
		}
		c.logger.Error("Failed to resolve student", zap.Int64("telegram_id", telegramID), zap.Error(err))
		c.sendMessage(ctx, chatID, textDatabaseDown)
		return
	}

	sessionID := uuid.NewString()
	sessCtx, cancel := c.sessionContext()

	inbox, ok := c.sessions.Open(chatID, sessionID, cancel)
	if !ok {
		cancel()
		c.sendMessage(ctx, chatID, textAlreadyRunning)
		return
	}

	sess := &conversation.Session{
		ID:        sessionID,
		StudentID: student.ID,
		// В чате нет тишины: пользователь просто отвечает позже, поэтому таймаут тишины выключен
		Listener: conversation.NewInboxListener(inbox, 0),
		Speaker: conversation.SpeakerFunc(func(ctx context.Context, text string) {
			c.sendMessage(ctx, chatID, text)
		}),
	}

	c.logger.Info("Chat session started",
		zap.String("session_id", sessionID),
		zap.Int64("chat_id", chatID),
		zap.Int64("student_id", student.ID),
	)

	go c.run(sessCtx, chatID, sess)
}

func (c *BotController) run(ctx context.Context, chatID int64, sess *conversation.Session) {
	defer c.sessions.Finish(chatID, sess.ID)

	outcomes, err := c.conversations.RunSession(ctx, sess)
	c.logger.Info("Chat session finished",
		zap.String("session_id", sess.ID),
		zap.Int64("chat_id", chatID),
		zap.Int("flows", len(outcomes)),
		zap.Int("completed", conversation.CountCompleted(outcomes)),
		zap.Error(err),
	)
}

func (c *BotController) sessionContext() (context.Context, context.CancelFunc) {
	if c.sessionTimeout > 0 {
		return context.WithTimeout(c.rootCtx, c.sessionTimeout)
	}
	return context.WithCancel(c.rootCtx)
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendMessage(ctx, update.Message.Chat.ID, textHelp)
}

// HandleCancel обрабатывает команду /cancel - отмена текущей сессии
func (c *BotController) HandleCancel(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if !c.sessions.Close(chatID) {
		c.sendMessage(ctx, chatID, textNothingToStop)
		return
	}
	c.sendMessage(ctx, chatID, textCancelled)
}

// HandleTextMessage передаёт текст в активную сессию чата
func (c *BotController) HandleTextMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	if !c.sessions.Active(chatID) {
		c.sendMessage(ctx, chatID, textNoSession)
		return
	}

	if !c.sessions.Deliver(chatID, update.Message.Text) {
		c.logger.Warn("Chat message dropped", zap.Int64("chat_id", chatID))
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := c.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
