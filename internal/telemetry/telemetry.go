// Package telemetry configures OpenTelemetry tracing for both binaries.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jeziellopes/observability/internal/config"
	"github.com/jeziellopes/observability/internal/logging"
)

type ShutdownFunc func(ctx context.Context) error

// Setup installs a tracer provider exporting via OTLP/gRPC and registers
// the W3C trace-context propagator globally, so HTTP and queue boundaries
// share one carrier convention. Returns a shutdown function that flushes
// pending spans.
func Setup(ctx context.Context, cfg config.ObservabilityConfig, logger logging.Logger) (ShutdownFunc, error) {
	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.ServiceEnv),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	endpoint := cfg.OtelEndpoint
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("otel configured",
		"otlp_endpoint", endpoint,
		"service_name", cfg.ServiceName,
		"service_env", cfg.ServiceEnv,
	)

	return tp.Shutdown, nil
}
