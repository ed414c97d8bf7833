// Package transcript хранит реплики голосовых сессий в Redis
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const keyPrefix = "voice_transcript:"

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 500
)

// Кто произнёс реплику
const (
	SpeakerAssistant = "assistant"
	SpeakerUser      = "user"
)

// ErrDisabled - Redis не настроен
var ErrDisabled = errors.New("transcript store is disabled")

type Entry struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Store struct {
	redis      *redis.Client
	ttl        time.Duration
	maxEntries int64
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewStore возвращает nil без клиента. Методы nil-хранилища ничего не делают.
func NewStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis:      client,
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		tracer:     otel.Tracer("clinic.internal.transcript"),
		logger:     logger,
	}
}

// Append дописывает реплику и продлевает TTL сессии
func (s *Store) Append(ctx context.Context, sessionID string, entry Entry) error {
	if s == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("transcript: session id required")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("transcript: marshal entry: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "transcript.append")
	defer span.End()

	key := sessionKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, key, -s.maxEntries, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("transcript: append entry: %w", err)
	}
	return nil
}

// Record пишет реплику, ошибка только логируется: стенограмма не должна ломать диалог
func (s *Store) Record(ctx context.Context, sessionID, speaker, text string) {
	if s == nil {
		return
	}
	err := s.Append(ctx, sessionID, Entry{Speaker: speaker, Text: text})
	if err != nil {
		s.logger.Warn("Failed to record transcript entry",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// List возвращает реплики сессии в порядке произнесения
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	if s == nil {
		return nil, ErrDisabled
	}

	ctx, span := s.tracer.Start(ctx, "transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Entry{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("transcript: list entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			span.RecordError(err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}
