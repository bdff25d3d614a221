package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/circuitbreaker"
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeCache struct{ err error }

func (f fakeCache) Ping(context.Context) error { return f.err }

type fakeSubmission struct {
	limiter *ratelimit.WindowLimiter
	breaker circuitbreaker.CircuitBreaker
}

func (f fakeSubmission) Limiter() *ratelimit.WindowLimiter      { return f.limiter }
func (f fakeSubmission) Breaker() circuitbreaker.CircuitBreaker { return f.breaker }

type healthEnvelope struct {
	Data    HealthStatus `json:"data"`
	Message string       `json:"message"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func getHealth(t *testing.T, db *gorm.DB, cache Cache, submission SubmissionStatus) healthEnvelope {
	t.Helper()

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewMonitoringController(db, logger, cache, submission, nil))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp healthEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth_ReportsDependenciesAndSubmitter(t *testing.T) {
	limiter, err := ratelimit.NewWindowLimiter(time.Minute, 3)
	require.NoError(t, err)
	require.True(t, limiter.TryAcquire())

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())

	resp := getHealth(t, openTestDB(t), fakeCache{}, fakeSubmission{limiter: limiter, breaker: breaker})

	assert.Equal(t, "crpt-gateway health check completed", resp.Message)
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, 1, resp.Data.Database)
	assert.Equal(t, 1, resp.Data.Cache)
	require.NotNil(t, resp.Data.Submitter)
	assert.Equal(t, 3, resp.Data.Submitter.Limiter.Limit)
	assert.Equal(t, 1, resp.Data.Submitter.Limiter.InFlight)
	assert.Equal(t, 1, limiter.Snapshot().Admitted, "health reporting must not spend submission budget")
	require.NotNil(t, resp.Data.Submitter.Breaker)
	assert.Equal(t, "closed", resp.Data.Submitter.Breaker.StateName)
}

func TestHealth_DegradedWhenBreakerOpen(t *testing.T) {
	limiter, err := ratelimit.NewWindowLimiter(time.Minute, 1)
	require.NoError(t, err)

	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	_ = breaker.Call(context.Background(), func(context.Context) error { return errors.New("connection refused") })

	resp := getHealth(t, openTestDB(t), nil, fakeSubmission{limiter: limiter, breaker: breaker})

	assert.Equal(t, "degraded", resp.Data.Status)
	assert.Equal(t, 0, resp.Data.Cache)
	assert.Equal(t, "open", resp.Data.Submitter.Breaker.StateName)
}

func TestHealth_CacheAndDatabaseFailures(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp := getHealth(t, db, fakeCache{err: errors.New("down")}, nil)

	assert.Equal(t, "degraded", resp.Data.Status)
	assert.Equal(t, 0, resp.Data.Database)
	assert.Equal(t, 0, resp.Data.Cache)
	assert.Nil(t, resp.Data.Submitter)
}

func TestMonitor_Operational(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewMonitoringController(openTestDB(t), logger, nil, nil, nil))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monitoring endpoint is operational.")
}
