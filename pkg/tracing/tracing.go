// Package tracing настраивает OpenTelemetry трассировку с экспортом по OTLP HTTP.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"notewise/pkg/logger"
)

// Config содержит настройки экспорта.
type Config struct {
	ServiceName string
	Enabled     bool
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// Provider выдает трейсеры и останавливает экспорт при завершении.
type Provider struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// New создает провайдер. При выключенной трассировке возвращается noop провайдер.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	log := logger.Log(ctx).With(zap.String("component", "tracing"))

	if !cfg.Enabled {
		log.Info(ctx, "tracing is disabled")
		return &Provider{
			provider: noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	log.Info(ctx, "tracing initialized", zap.String("endpoint", cfg.Endpoint))
	return &Provider{provider: tp, shutdown: tp.Shutdown}, nil
}

// Tracer возвращает именованный трейсер.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.provider.Tracer(name)
}

// Shutdown выгружает накопленные спаны и останавливает экспорт.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
