package config

import (
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/constants"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearSubmitterEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CRPT_API_URL", "CRPT_TIME_UNIT", "CRPT_REQUEST_LIMIT", "CRPT_HTTP_TIMEOUT",
		"CRPT_SIGNATURE_HEADER", "CRPT_BREAKER_ENABLED", "CRPT_BREAKER_FAILURES", "CRPT_BREAKER_RECOVERY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadSubmitterSettings_Defaults(t *testing.T) {
	clearSubmitterEnv(t)

	s, err := LoadSubmitterSettings()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultDocumentsCreateURL, s.Endpoint)
	assert.Equal(t, time.Second, s.TimeUnit)
	assert.Equal(t, constants.DefaultSubmitRequestLimit, s.RequestLimit)
	assert.Equal(t, "Signature", s.SignatureHeader)
	assert.True(t, s.BreakerEnabled)
	assert.NotNil(t, s.SubmitterConfig().Breaker)
}

func TestLoadSubmitterSettings_Overrides(t *testing.T) {
	clearSubmitterEnv(t)
	t.Setenv("CRPT_API_URL", "http://localhost:9999/create")
	t.Setenv("CRPT_TIME_UNIT", "minute")
	t.Setenv("CRPT_REQUEST_LIMIT", "3")
	t.Setenv("CRPT_HTTP_TIMEOUT", "5s")
	t.Setenv("CRPT_BREAKER_ENABLED", "false")

	s, err := LoadSubmitterSettings()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/create", s.Endpoint)
	assert.Equal(t, time.Minute, s.TimeUnit)
	assert.Equal(t, 3, s.RequestLimit)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Nil(t, s.SubmitterConfig().Breaker)
}

func TestLoadSubmitterSettings_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CRPT_REQUEST_LIMIT":    "0",
		"CRPT_TIME_UNIT":        "fortnight",
		"CRPT_HTTP_TIMEOUT":     "soon",
		"CRPT_BREAKER_FAILURES": "-2",
		"CRPT_API_URL":          "ftp://example.com",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearSubmitterEnv(t)
			t.Setenv(key, value)

			_, err := LoadSubmitterSettings()
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.GetErrorType(err))
		})
	}
}

func TestNewSubmitter_FailsFastOnNegativeLimit(t *testing.T) {
	clearSubmitterEnv(t)
	t.Setenv("CRPT_REQUEST_LIMIT", "-5")

	sub, _, err := NewSubmitter(log.NewLoggerWithJSONOutput(), prometheus.NewRegistry())
	assert.Nil(t, sub)
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.GetErrorType(err))
}

func TestNewSubmitter_UsesSettings(t *testing.T) {
	clearSubmitterEnv(t)
	t.Setenv("CRPT_REQUEST_LIMIT", "4")
	t.Setenv("CRPT_TIME_UNIT", "250ms")

	sub, settings, err := NewSubmitter(log.NewLoggerWithJSONOutput(), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, 4, sub.Limiter().Limit())
	assert.Equal(t, 250*time.Millisecond, sub.Limiter().Window())
	assert.Equal(t, 4, settings.RequestLimit)
}
