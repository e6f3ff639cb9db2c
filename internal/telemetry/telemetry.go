// Package telemetry wires OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gitlab.com/yelinaung/expense-approval/internal/config"
)

// InstrumentationName identifies tracers and meters created by this service.
const InstrumentationName = "gitlab.com/yelinaung/expense-approval"

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global tracer and meter providers for the configured exporter.
// With the "none" exporter the global no-op providers stay in place.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.OTelExporter == "" || cfg.OTelExporter == config.ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.OTelServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	spanExporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	metricExporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		_ = spanExporter.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func newSpanExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch {
	case cfg.OTelExporter == config.ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case isHTTPProtocol(cfg.OTelOTLPProtocol):
		exp, err = otlptracehttp.New(ctx)
	default:
		exp, err = otlptracegrpc.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	return exp, nil
}

func newMetricExporter(ctx context.Context, cfg *config.Config) (sdkmetric.Exporter, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch {
	case cfg.OTelExporter == config.ExporterStdout:
		exp, err = stdoutmetric.New()
	case isHTTPProtocol(cfg.OTelOTLPProtocol):
		exp, err = otlpmetrichttp.New(ctx)
	default:
		exp, err = otlpmetricgrpc.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	return exp, nil
}

func isHTTPProtocol(protocol string) bool {
	return protocol == "http/protobuf" || protocol == "http/json" || protocol == "http"
}
