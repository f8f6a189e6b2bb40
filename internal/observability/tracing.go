package observability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by service spans.
const TracerName = "github.com/timmy/gemstore"

// Tracer returns the process-wide tracer. It is a no-op until InitTracing
// installs a provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// InitTracing installs a tracer provider when tracing is enabled and returns
// its shutdown function. With tracing disabled the shutdown is a no-op.
// Parameters:
//   - ctx: context for resource detection.
//   - serviceName: service.name resource attribute.
//   - cfg: telemetry settings (enabled flag, exporter, sample ratio).
// Returns:
//   - func(context.Context) error: flushes and stops the provider.
//   - error: non-nil if the exporter cannot be built.
func InitTracing(ctx context.Context, serviceName string, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.TracingEnabled {
		return noop, nil
	}

	exporter, err := buildExporter(cfg.Exporter)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		logger.CtxWarn(ctx, "otel resource init failed (continuing): %v", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.CtxInfo(ctx, "Tracing initialized: exporter=%s, sample_ratio=%.2f", cfg.Exporter, clampRatio(cfg.SampleRatio))
	return tp.Shutdown, nil
}

func buildExporter(name string) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case "stdout-pretty":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", name)
	}
}

func clampRatio(r float64) float64 {
	switch {
	case r <= 0:
		return 1
	case r > 1:
		return 1
	}
	return r
}
