package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenheart/ordersync/internal/infrastructure/telemetry"
)

func testTracerConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "ordersync-test",
		Insecure:          true,
	}
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	cfg := testTracerConfig()
	cfg.Enabled = false

	tp, err := telemetry.NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	// The OTLP gRPC exporter connects lazily, so construction succeeds
	// without a collector listening.
	tp, err := telemetry.NewTracerProvider(context.Background(), testTracerConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.True(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_SamplingRatios(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{name: "always sample", ratio: 1.0},
		{name: "never sample", ratio: 0.0},
		{name: "partial sample", ratio: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTracerConfig()
			cfg.SamplingRatio = tt.ratio

			tp, err := telemetry.NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			require.NotNil(t, tp)
			assert.NoError(t, tp.Shutdown(context.Background()))
		})
	}
}

func TestTracerProvider_GetConfig(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), testTracerConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	got := tp.GetConfig()
	assert.Equal(t, "ordersync-test", got.ServiceName)
	assert.Equal(t, "localhost:14317", got.CollectorEndpoint)
	assert.True(t, got.Enabled)
}

func TestTracerProvider_ShutdownIdempotent(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), testTracerConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
}
