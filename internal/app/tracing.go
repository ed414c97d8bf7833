package app

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Tracing владеет глобальным TracerProvider процесса
type Tracing struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracing устанавливает глобальный TracerProvider с выбранным экспортёром.
// Для "" и "none" провайдер не ставится, спаны сервисов остаются no-op.
func NewTracing(exporter, service string, out io.Writer, logger *zap.Logger) (*Tracing, error) {
	t := &Tracing{logger: logger}

	switch exporter {
	case "", "none":
		logger.Info("Tracing disabled")
		return t, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", exporter)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)
	otel.SetTracerProvider(t.provider)

	logger.Info("Tracing enabled", zap.String("exporter", exporter))
	return t, nil
}

// Shutdown выгружает накопленные спаны
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
