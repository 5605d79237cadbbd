package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Enabled(t *testing.T) {
	p, err := NewProvider(context.Background(), config.TelemetryConfig{
		Enabled: true, Endpoint: "localhost:4318", Insecure: true, ServiceName: "myfit-test", SampleRatio: 0.5,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, p.Enabled())
	// nothing was recorded, so shutdown has nothing to export
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOn")
	assert.Contains(t, sampler(0).Description(), "AlwaysOff")
	assert.Contains(t, sampler(0.3).Description(), "TraceIDRatioBased")
}
