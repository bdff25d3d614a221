package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvTrimmedOrDefault(t *testing.T) {
	t.Setenv("CRPT_TEST_VALUE", "  ")
	assert.Equal(t, "fallback", GetEnvTrimmedOrDefault("CRPT_TEST_VALUE", "fallback"))

	t.Setenv("CRPT_TEST_VALUE", " value ")
	assert.Equal(t, "value", GetEnvTrimmedOrDefault("CRPT_TEST_VALUE", "fallback"))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("CRPT_TEST_BOOL", "")
	b, err := EnvBool("CRPT_TEST_BOOL", true)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("CRPT_TEST_BOOL", "false")
	b, err = EnvBool("CRPT_TEST_BOOL", true)
	require.NoError(t, err)
	assert.False(t, b)

	t.Setenv("CRPT_TEST_BOOL", "maybe")
	b, err = EnvBool("CRPT_TEST_BOOL", true)
	assert.Error(t, err)
	assert.True(t, b)
}

func TestEnvPositiveInt(t *testing.T) {
	t.Setenv("CRPT_TEST_INT", "12")
	n, err := EnvPositiveInt("CRPT_TEST_INT", 3)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, raw := range []string{"0", "-4", "ten"} {
		t.Setenv("CRPT_TEST_INT", raw)
		n, err = EnvPositiveInt("CRPT_TEST_INT", 3)
		assert.Error(t, err, raw)
		assert.Equal(t, 3, n, raw)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("CRPT_TEST_DURATION", "1500ms")
	d, err := EnvDuration("CRPT_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	t.Setenv("CRPT_TEST_DURATION", "0s")
	d, err = EnvDuration("CRPT_TEST_DURATION", time.Second)
	assert.Error(t, err)
	assert.Equal(t, time.Second, d)
}

func TestEnvList(t *testing.T) {
	t.Setenv("CRPT_TEST_LIST", " a, ,b ,,c")
	assert.Equal(t, []string{"a", "b", "c"}, EnvList("CRPT_TEST_LIST"))

	t.Setenv("CRPT_TEST_LIST", " ")
	assert.Nil(t, EnvList("CRPT_TEST_LIST"))
}

func TestTracingSettings(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "yes")
	assert.False(t, IsTracingEnabled())

	t.Setenv("OTEL_TRACES_ENABLED", "true")
	assert.True(t, IsTracingEnabled())

	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "crpt-gateway", OTelServiceName())
}
