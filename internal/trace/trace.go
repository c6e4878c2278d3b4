// Package trace owns the OpenTelemetry setup. Spans are exported through
// the stdout exporter and the whole subsystem is switchable off via
// LOG_TRACING_ENABLED, so production runs pay nothing when tracing is off.
package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config names the traced service. Both fields default when empty.
type Config struct {
	ServiceName string
	Version     string
}

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

func Init(cfg Config) error {
	if os.Getenv("LOG_TRACING_ENABLED") == "false" {
		enabled = false
		return nil
	}
	enabled = true

	if cfg.ServiceName == "" {
		cfg.ServiceName = "bridge"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	tracerProvider = provider
	otel.SetTracerProvider(provider)
	tracer = otel.Tracer(cfg.ServiceName)
	return nil
}

func newProvider(cfg Config) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

// StartSpan starts a span when tracing is on; otherwise it hands back the
// span already on the context so callers never branch.
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	return enabled
}

// GetTraceFields returns the active trace and span IDs for log enrichment.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
