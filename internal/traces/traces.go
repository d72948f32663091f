// Package traces provides OpenTelemetry tracing for the crogentx API.
package traces

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "github.com/crogentx/crogentx"
	serviceName    = "crogentx"
	serviceVersion = "0.1.0"
)

// Init installs an OTLP/gRPC tracer provider. With an empty endpoint the
// global no-op provider stays in place. The returned function flushes and
// stops the provider.
func Init(ctx context.Context, otlpEndpoint string, logger *slog.Logger) (func(context.Context) error, error) {
	if otlpEndpoint == "" {
		logger.Info("tracing disabled (no OTEL_EXPORTER_OTLP_ENDPOINT set)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "endpoint", otlpEndpoint)
	return tp.Shutdown, nil
}

// StartSpan starts a span on the crogentx tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// RecordError marks the span as failed when err is non-nil
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func TxHash(hash string) attribute.KeyValue {
	return attribute.String("tx.hash", hash)
}

func AgentID(id string) attribute.KeyValue {
	return attribute.String("agent.id", id)
}

func Instruction(instruction string) attribute.KeyValue {
	return attribute.String("x402.instruction", instruction)
}

func Endpoint(name string) attribute.KeyValue {
	return attribute.String("upstream.endpoint", name)
}

func Source(name string) attribute.KeyValue {
	return attribute.String("records.source", name)
}

func Count(key string, n int) attribute.KeyValue {
	return attribute.Int(key, n)
}
