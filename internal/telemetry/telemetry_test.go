package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"gitlab.com/yelinaung/expense-approval/internal/config"
)

func TestSetup_NoneExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{OTelExporter: config.ExporterNone})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestIsHTTPProtocol(t *testing.T) {
	t.Parallel()

	require.True(t, isHTTPProtocol("http/protobuf"))
	require.True(t, isHTTPProtocol("http"))
	require.False(t, isHTTPProtocol("grpc"))
	require.False(t, isHTTPProtocol(""))
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "approved", "pending", "approved")
	m.RecordTransition(ctx, "rejected", "pending", "rejected")
	m.RecordExtraction(ctx, "pdf_text", 150*time.Millisecond, nil)
	m.RecordExtraction(ctx, "ocr", time.Second, errors.New("boom"))
	m.RecordRateFallback(ctx, "USD", "EUR")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names[metric.Name] = true
	}
	require.True(t, names["expense.transitions"])
	require.True(t, names["receipt.extractions"])
	require.True(t, names["receipt.extraction.duration"])
	require.True(t, names["exchange.rate.fallbacks"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordTransition(context.Background(), "approved", "pending", "approved")
		m.RecordExtraction(context.Background(), "ocr", time.Second, nil)
		m.RecordRateFallback(context.Background(), "USD", "EUR")
	})
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "ok", attribute.String("k", "v"))
	EndSpan(span, nil)
	_, span = StartSpan(context.Background(), "failed")
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, "ok", ended[0].Name())
	require.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Equal(t, "failed", ended[1].Name())
	require.Equal(t, codes.Error, ended[1].Status().Code)
	require.Equal(t, "boom", ended[1].Status().Description)
}
