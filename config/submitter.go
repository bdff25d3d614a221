package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/circuitbreaker"
	"github.com/akeren/crpt-gateway/pkg/constants"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/akeren/crpt-gateway/pkg/submitter"
	"github.com/akeren/crpt-gateway/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// SubmitterSettings mirrors the CRPT_* environment variables.
type SubmitterSettings struct {
	Endpoint        string
	TimeUnit        time.Duration
	RequestLimit    int
	Timeout         time.Duration
	SignatureHeader string
	BreakerEnabled  bool
	BreakerFailures int
	BreakerRecovery time.Duration
}

// LoadSubmitterSettings reads and validates the submitter environment. A request limit that is not a
// positive integer is a configuration error.
func LoadSubmitterSettings() (*SubmitterSettings, error) {
	breakerDefaults := circuitbreaker.DefaultConfig()
	s := &SubmitterSettings{
		Endpoint:        utils.GetEnvTrimmedOrDefault("CRPT_API_URL", constants.DefaultDocumentsCreateURL),
		SignatureHeader: utils.GetEnvTrimmedOrDefault("CRPT_SIGNATURE_HEADER", constants.DefaultSignatureHeader),
	}

	unit, err := submitter.ParseTimeUnit(utils.GetEnvTrimmedOrDefault("CRPT_TIME_UNIT", constants.DefaultSubmitTimeUnit))
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid CRPT_TIME_UNIT", err)
	}
	s.TimeUnit = unit

	if s.RequestLimit, err = utils.EnvPositiveInt("CRPT_REQUEST_LIMIT", constants.DefaultSubmitRequestLimit); err != nil {
		return nil, apperrors.NewConfigurationError("CRPT_REQUEST_LIMIT must be a positive integer", err)
	}
	if s.Timeout, err = utils.EnvDuration("CRPT_HTTP_TIMEOUT", constants.DefaultSubmitHTTPTimeout); err != nil {
		return nil, apperrors.NewConfigurationError("invalid CRPT_HTTP_TIMEOUT", err)
	}
	if s.BreakerEnabled, err = utils.EnvBool("CRPT_BREAKER_ENABLED", true); err != nil {
		return nil, apperrors.NewConfigurationError("invalid CRPT_BREAKER_ENABLED", err)
	}
	if s.BreakerFailures, err = utils.EnvPositiveInt("CRPT_BREAKER_FAILURES", breakerDefaults.FailureThreshold); err != nil {
		return nil, apperrors.NewConfigurationError("invalid CRPT_BREAKER_FAILURES", err)
	}
	if s.BreakerRecovery, err = utils.EnvDuration("CRPT_BREAKER_RECOVERY", breakerDefaults.RecoveryTimeout); err != nil {
		return nil, apperrors.NewConfigurationError("invalid CRPT_BREAKER_RECOVERY", err)
	}

	if !strings.HasPrefix(s.Endpoint, "http://") && !strings.HasPrefix(s.Endpoint, "https://") {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("CRPT_API_URL must be an http(s) URL, got %q", s.Endpoint), nil)
	}

	return s, nil
}

func (s *SubmitterSettings) SubmitterConfig() submitter.Config {
	cfg := submitter.Config{
		Endpoint:        s.Endpoint,
		TimeUnit:        s.TimeUnit,
		RequestLimit:    s.RequestLimit,
		Timeout:         s.Timeout,
		SignatureHeader: s.SignatureHeader,
	}
	if s.BreakerEnabled {
		cfg.Breaker = &circuitbreaker.Config{
			FailureThreshold: s.BreakerFailures,
			RecoveryTimeout:  s.BreakerRecovery,
		}
	}
	return cfg
}

// NewSubmitter builds the process-wide submitter from the environment.
func NewSubmitter(logger *log.Logger, reg prometheus.Registerer) (*submitter.Submitter, *SubmitterSettings, error) {
	settings, err := LoadSubmitterSettings()
	if err != nil {
		logger.Error("Invalid submitter configuration", "error", err)
		return nil, nil, err
	}

	opts := []submitter.Option{submitter.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, submitter.WithRegisterer(reg))
	}

	sub, err := submitter.New(settings.SubmitterConfig(), opts...)
	if err != nil {
		logger.Error("Failed to create submitter", "error", err)
		return nil, nil, err
	}

	logger.Info("Submitter configured",
		"endpoint", settings.Endpoint,
		"request_limit", settings.RequestLimit,
		"time_unit", settings.TimeUnit.String(),
		"breaker", settings.BreakerEnabled,
	)
	return sub, settings, nil
}
