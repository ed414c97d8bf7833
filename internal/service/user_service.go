package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/clinic_assistant/internal/model"
	"github.com/Freeeeeet/clinic_assistant/internal/repository"
	"github.com/Freeeeeet/clinic_assistant/internal/repository/base"
	"go.uber.org/zap"
)

type UserService struct {
	db       base.Pinger
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(db base.Pinger, userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Ping проверяет, что база доступна, до начала диалога
func (s *UserService) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("Database ping failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// FindDoctors ищет врачей по фразе пользователя. Пустой результат - ErrDoctorNotFound.
func (s *UserService) FindDoctors(ctx context.Context, query string) ([]*model.User, error) {
	namePart := NormalizeDoctorQuery(query)
	if namePart == "" {
		return nil, ErrDoctorNotFound
	}

	doctors, err := s.userRepo.SearchDoctors(ctx, namePart)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if len(doctors) == 0 {
		s.logger.Info("No doctor matched", zap.String("query", query))
		return nil, ErrDoctorNotFound
	}

	return doctors, nil
}

// ResolveStudent проверяет, что id принадлежит студенту
func (s *UserService) ResolveStudent(ctx context.Context, studentID int64) (*model.User, error) {
	if studentID == 0 {
		return nil, ErrNoIdentity
	}

	user, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !user.IsStudent() {
		s.logger.Warn("Identity is not a student account", zap.Int64("user_id", studentID))
		return nil, ErrNoIdentity
	}

	return user, nil
}

// StudentByTelegramID находит студента, привязанного к Telegram-аккаунту
func (s *UserService) StudentByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if !user.IsStudent() {
		return nil, ErrNoIdentity
	}

	return user, nil
}

var honorifics = map[string]bool{
	"dr":     true,
	"doctor": true,
}

// NormalizeDoctorQuery убирает обращение "Dr." и знаки препинания из распознанной фразы
func NormalizeDoctorQuery(query string) string {
	query = strings.Trim(strings.TrimSpace(query), " .,!?")

	fields := strings.Fields(query)
	if len(fields) > 1 && honorifics[strings.TrimSuffix(strings.ToLower(fields[0]), ".")] {
		fields = fields[1:]
	}

	return strings.Join(fields, " ")
}

// DoctorDisplayName добавляет "Dr." к имени, если его там ещё нет
func DoctorDisplayName(name string) string {
	name = strings.TrimSpace(name)
	fields := strings.Fields(name)
	if len(fields) > 0 && honorifics[strings.TrimSuffix(strings.ToLower(fields[0]), ".")] {
		return name
	}
	return "Dr. " + name
}
