package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		hostport string
		path     string
		insecure bool
	}{
		{name: "http default path", raw: "http://collector:4318", hostport: "collector:4318", path: "/v1/traces", insecure: true},
		{name: "https custom path", raw: "https://otel.example.com/otlp/v1/traces", hostport: "otel.example.com", path: "/otlp/v1/traces"},
		{name: "bare host port", raw: " localhost:4318 ", hostport: "localhost:4318", path: "/v1/traces", insecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := parseOTLPEndpoint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, otlpTarget{hostport: tt.hostport, path: tt.path, insecure: tt.insecure}, target)
			assert.Len(t, target.options(), map[bool]int{true: 3, false: 2}[tt.insecure])
		})
	}
}

func TestParseOTLPEndpoint_Rejects(t *testing.T) {
	for _, raw := range []string{"", "grpc://collector:4317", "http://", "collector:4318/v1/traces"} {
		_, err := parseOTLPEndpoint(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseSampleRatio(t *testing.T) {
	assert.Equal(t, 1.0, parseSampleRatio(""))
	assert.Equal(t, 1.0, parseSampleRatio("abc"))
	assert.Equal(t, 0.25, parseSampleRatio("0.25"))
	assert.Equal(t, 0.0, parseSampleRatio("-3"))
	assert.Equal(t, 1.0, parseSampleRatio("7"))
}

func TestSetupTracing_DisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "")

	shutdown, err := SetupTracing(quietLogger())
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestSetupTracing_RejectsBadEndpoint(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "grpc://collector:4317")

	_, err := SetupTracing(quietLogger())
	assert.Error(t, err)
}
