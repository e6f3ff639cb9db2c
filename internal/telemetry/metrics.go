package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the workflow instruments. A nil *Metrics records nothing.
type Metrics struct {
	transitions        metric.Int64Counter
	extractions        metric.Int64Counter
	extractionDuration metric.Float64Histogram
	rateFallbacks      metric.Int64Counter
}

// NewMetrics creates instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(InstrumentationName))
}

// NewMetricsWithMeter creates instruments on the given meter.
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	transitions, err := meter.Int64Counter("expense.transitions",
		metric.WithDescription("Approval state machine transitions applied"))
	if err != nil {
		return nil, err
	}
	extractions, err := meter.Int64Counter("receipt.extractions",
		metric.WithDescription("Receipt text extractions by strategy and outcome"))
	if err != nil {
		return nil, err
	}
	extractionDuration, err := meter.Float64Histogram("receipt.extraction.duration",
		metric.WithDescription("Receipt text extraction latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	rateFallbacks, err := meter.Int64Counter("exchange.rate.fallbacks",
		metric.WithDescription("Conversions that fell back to the unconverted amount"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		transitions:        transitions,
		extractions:        extractions,
		extractionDuration: extractionDuration,
		rateFallbacks:      rateFallbacks,
	}, nil
}

// RecordTransition counts one applied transition.
func (m *Metrics) RecordTransition(ctx context.Context, action, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordExtraction counts one extraction and its latency.
func (m *Metrics) RecordExtraction(ctx context.Context, strategy string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.Bool("success", err == nil),
	)
	m.extractions.Add(ctx, 1, attrs)
	m.extractionDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRateFallback counts one degraded conversion.
func (m *Metrics) RecordRateFallback(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.rateFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
