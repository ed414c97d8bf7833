package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions задаёт формат и уровень логов процесса
type LoggerOptions struct {
	Production bool
	// Level - debug, info, warn, error. Пустое значение оставляет уровень окружения.
	Level   string
	Service string
}

// NewLogger строит JSON-логгер для production и цветной консольный для разработки
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.Production {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		config.Level = level
	}

	config.OutputPaths = []string{"stdout"}
	if opts.Service != "" {
		config.InitialFields = map[string]any{"service": opts.Service}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
