package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultOTelConfig(t *testing.T) {
	cfg := DefaultOTelConfig()

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, ServiceVersion, cfg.ServiceVersion)
	assert.True(t, cfg.EnableTracing)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		EnableTracing:  false,
		EnableMetrics:  false,
	}

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_MetricsOnly(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
	}

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:    "test-service",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		TraceExporter:  "jaeger",
		EnableTracing:  true,
	}

	_, err := InitializeOTel(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestCreatePricingMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	metrics, err := CreatePricingMetrics(mp.Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.PricingsTotal)
	assert.NotNil(t, metrics.PricingDuration)
	assert.NotNil(t, metrics.PricingLatticeSteps)
	assert.NotNil(t, metrics.PricingErrors)
	assert.NotNil(t, metrics.BoundaryExtractions)
	assert.NotNil(t, metrics.SystemErrors)
}

func TestRecordPricingMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	metrics, err := CreatePricingMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	// Success and failure paths must not panic.
	RecordPricingMetrics(ctx, metrics, "put", "american", 300, 5*time.Millisecond, nil)
	RecordPricingMetrics(ctx, metrics, "call", "european", 100, time.Millisecond, errors.New("unstable"))

	// Nil metrics are tolerated so callers can skip OTel wiring.
	RecordPricingMetrics(ctx, nil, "put", "american", 300, time.Millisecond, nil)
	RecordActivePricingChange(ctx, nil, 1)

	RecordActivePricingChange(ctx, metrics, 1)
	RecordActivePricingChange(ctx, metrics, -1)
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestAddSpanEvent_NoRecordingSpan(t *testing.T) {
	// Without a recording span this is a no-op and must not panic.
	AddSpanEvent(context.Background(), "test.event", map[string]interface{}{
		"steps":   300,
		"kind":    "put",
		"value":   7.97,
		"stable":  true,
		"elapsed": time.Second,
	})
}

func TestRecordError_NoRecordingSpan(t *testing.T) {
	RecordError(context.Background(), errors.New("boom"))
}
