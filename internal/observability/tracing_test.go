package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trampoja/app-onboarding/internal/config"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func withTracingConfig(t *testing.T, enabled bool, endpoint string) {
	t.Helper()
	original := config.AppConfig
	config.AppConfig = &config.Config{
		Environment:        "test",
		TracingEnabled:     enabled,
		TracingEndpoint:    endpoint,
		TracingSampleRatio: 1,
		ServiceName:        "trampoja-onboarding",
		ServiceVersion:     "v1.0.0",
	}
	t.Cleanup(func() { config.AppConfig = original })
}

func TestInitTracer_NilConfig(t *testing.T) {
	original := config.AppConfig
	config.AppConfig = nil
	defer func() { config.AppConfig = original }()

	tracerProvider = nil
	assert.NotPanics(t, InitTracer)
	assert.Nil(t, tracerProvider)
}

func TestInitTracer_Disabled(t *testing.T) {
	withTracingConfig(t, false, "")

	tracerProvider = nil
	InitTracer()

	assert.Nil(t, tracerProvider)
}

func TestInitTracer_EnabledThenShutdown(t *testing.T) {
	withTracingConfig(t, true, "localhost:4317")

	// the exporter connects lazily, so an unreachable collector is fine here
	InitTracer()
	assert.NotNil(t, tracerProvider)
	assert.NotNil(t, otel.GetTracerProvider())

	ShutdownTracer()
	assert.Nil(t, tracerProvider)
}

func TestShutdownTracer_NilProvider(t *testing.T) {
	tracerProvider = nil
	assert.NotPanics(t, ShutdownTracer)
}

func TestServiceResource(t *testing.T) {
	res := serviceResource(&config.Config{
		Environment:    "staging",
		ServiceName:    "onboarding-api",
		ServiceVersion: "v2.3.0",
	})

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	assert.True(t, ok)
	assert.Equal(t, "onboarding-api", name.AsString())
	version, _ := res.Set().Value(semconv.ServiceVersionKey)
	assert.Equal(t, "v2.3.0", version.AsString())
	env, _ := res.Set().Value(semconv.DeploymentEnvironmentKey)
	assert.Equal(t, "staging", env.AsString())
}

func TestSampler_UsesRatio(t *testing.T) {
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, sampler(1).Description(), "ParentBased")
}
