package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string `mapstructure:"DB_DSN"`
	Environment string `mapstructure:"ENV"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Экспортёр трейсов: пусто или none - трейсинг выключен, stdout - спаны в stdout
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`

	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	ClinicTimezone        string `mapstructure:"CLINIC_TIMEZONE"`

	// Ограничения диалога
	StepMaxAttempts int           `mapstructure:"STEP_MAX_ATTEMPTS"`
	FlowTimeout     time.Duration `mapstructure:"FLOW_TIMEOUT"`
	SessionTimeout  time.Duration `mapstructure:"SESSION_TIMEOUT"`
	SilenceTimeout  time.Duration `mapstructure:"SILENCE_TIMEOUT"`

	ReconcileSchedule string `mapstructure:"RECONCILE_SCHEDULE"`
}

// Поддерживаемые экспортёры трейсов
const (
	TracingNone   = "none"
	TracingStdout = "stdout"
)

const (
	defaultHTTPAddr          = ":5001"
	defaultCalendarID        = "primary"
	defaultTimezone          = "Asia/Kolkata"
	defaultStepMaxAttempts   = 10
	defaultFlowTimeout       = 10 * time.Minute
	defaultSessionTimeout    = 30 * time.Minute
	defaultSilenceTimeout    = 20 * time.Second
	defaultReconcileSchedule = "@every 1h"
)

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из переданного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:                 getenv("DB_DSN"),
		Environment:           getenv("ENV"),
		HTTPAddr:              getenv("HTTP_ADDR"),
		JWTSecret:             getenv("JWT_SECRET"),
		LogLevel:              getenv("LOG_LEVEL"),
		TracingExporter:       getenv("TRACING_EXPORTER"),
		TelegramToken:         getenv("TELEGRAM_TOKEN"),
		RedisURL:              getenv("REDIS_URL"),
		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCalendarID:      getenv("GOOGLE_CALENDAR_ID"),
		ClinicTimezone:        getenv("CLINIC_TIMEZONE"),
		ReconcileSchedule:     getenv("RECONCILE_SCHEDULE"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.GoogleCalendarID == "" {
		cfg.GoogleCalendarID = defaultCalendarID
	}
	if cfg.ClinicTimezone == "" {
		cfg.ClinicTimezone = defaultTimezone
	}
	if cfg.ReconcileSchedule == "" {
		cfg.ReconcileSchedule = defaultReconcileSchedule
	}

	var err error
	if cfg.StepMaxAttempts, err = intOrDefault(getenv, "STEP_MAX_ATTEMPTS", defaultStepMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.FlowTimeout, err = durationOrDefault(getenv, "FLOW_TIMEOUT", defaultFlowTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionTimeout, err = durationOrDefault(getenv, "SESSION_TIMEOUT", defaultSessionTimeout); err != nil {
		return nil, err
	}
	if cfg.SilenceTimeout, err = durationOrDefault(getenv, "SILENCE_TIMEOUT", defaultSilenceTimeout); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.StepMaxAttempts < 0 {
		return nil, fmt.Errorf("STEP_MAX_ATTEMPTS must not be negative, got %d", cfg.StepMaxAttempts)
	}
	switch cfg.TracingExporter {
	case "", TracingNone, TracingStdout:
	default:
		return nil, fmt.Errorf("TRACING_EXPORTER must be %q or %q, got %q", TracingNone, TracingStdout, cfg.TracingExporter)
	}
	if _, err := time.LoadLocation(cfg.ClinicTimezone); err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q: %w", cfg.ClinicTimezone, err)
	}

	return cfg, nil
}

// Location возвращает часовой пояс клиники
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func intOrDefault(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return v, nil
}

func durationOrDefault(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return v, nil
}
