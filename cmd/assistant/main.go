package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/clinic_assistant/internal/app"
	"github.com/Freeeeeet/clinic_assistant/internal/calendar"
	"github.com/Freeeeeet/clinic_assistant/internal/config"
	"github.com/Freeeeeet/clinic_assistant/internal/controller/httpapi"
	"github.com/Freeeeeet/clinic_assistant/internal/controller/telegram"
	"github.com/Freeeeeet/clinic_assistant/internal/conversation"
	"github.com/Freeeeeet/clinic_assistant/internal/metrics"
	"github.com/Freeeeeet/clinic_assistant/internal/repository"
	"github.com/Freeeeeet/clinic_assistant/internal/service"
	"github.com/Freeeeeet/clinic_assistant/internal/temporal"
	"github.com/Freeeeeet/clinic_assistant/internal/transcript"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName     = "clinic-assistant"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(app.LoggerOptions{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		Service:    serviceName,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Sugar().Infow("Starting clinic assistant",
		"environment", cfg.Environment,
		"http_addr", cfg.HTTPAddr,
		"timezone", cfg.ClinicTimezone,
		"telegram_enabled", cfg.TelegramToken != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Трейсинг ставится до сервисов, чтобы их спаны уходили в экспортёр
	tracing, err := app.NewTracing(cfg.TracingExporter, serviceName, os.Stdout, logger)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	// База
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	loc := cfg.Location()
	mirror := calendar.New(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID, loc, logger)
	transcripts := transcript.NewStore(newRedisClient(ctx, cfg.RedisURL, logger), transcript.DefaultTTL, logger)

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	slotRepo := repository.NewDoctorSlotRepository(pool)
	leaveRepo := repository.NewLeaveRepository(pool)

	// Сервисы
	userService := service.NewUserService(pool, userRepo, logger)
	bookingService := service.NewBookingService(pool, appointmentRepo, slotRepo, mirror, m, loc, logger)
	leaveService := service.NewLeaveService(pool, leaveRepo, m, logger)

	engine := conversation.NewEngine(
		userService,
		bookingService,
		leaveService,
		temporal.NewParser(),
		transcripts,
		m,
		conversation.Options{
			MaxAttempts: cfg.StepMaxAttempts,
			FlowTimeout: cfg.FlowTimeout,
		},
		logger,
	)

	scheduler := app.NewScheduler(bookingService, cfg.ReconcileSchedule, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// HTTP
	router := httpapi.NewRouter(httpapi.Config{
		Conversations:  engine,
		Bookings:       bookingService,
		Leaves:         leaveService,
		Directory:      userService,
		Transcripts:    transcripts,
		JWTSecret:      cfg.JWTSecret,
		SilenceTimeout: cfg.SilenceTimeout,
		SessionTimeout: cfg.SessionTimeout,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// Telegram-бот опционален
	if cfg.TelegramToken != "" {
		startBot(ctx, cfg, engine, userService, logger)
	} else {
		logger.Info("Telegram bot disabled, TELEGRAM_TOKEN is not set")
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", zap.Error(err))
	}

	logger.Info("Clinic assistant stopped")
}

func startBot(ctx context.Context, cfg *config.Config, engine *conversation.Engine, users *service.UserService, logger *zap.Logger) {
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to create Telegram bot", zap.Error(err))
		return
	}

	controller := telegram.NewBotController(b, engine, users, cfg.SessionTimeout, logger)
	if err := controller.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands were not registered", zap.Error(err))
	}

	go func() {
		if err := controller.Start(ctx); err != nil {
			logger.Error("Telegram bot stopped", zap.Error(err))
		}
	}()
}

// newRedisClient возвращает nil, если Redis не настроен или недоступен: стенограммы тогда не пишутся
func newRedisClient(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	if url == "" {
		logger.Info("Transcript store disabled, REDIS_URL is not set")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("Transcript store disabled, invalid REDIS_URL", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Transcript store disabled, Redis is unreachable", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("Transcript store enabled")
	return client
}
