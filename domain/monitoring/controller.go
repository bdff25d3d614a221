package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/circuitbreaker"
	"github.com/akeren/crpt-gateway/pkg/factory"
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"gorm.io/gorm"
)

const (
	monitoringRequestsPerMinute = 10
	healthCheckTimeout          = 3 * time.Second
)

type Cache interface {
	Ping(ctx context.Context) error
}

// SubmissionStatus exposes the outgoing limiter and breaker of the document submitter.
type SubmissionStatus interface {
	Limiter() *ratelimit.WindowLimiter
	Breaker() circuitbreaker.CircuitBreaker
}

type HealthStatus struct {
	Status    string           `json:"status"`   // "ok" or "degraded"
	Database  int              `json:"database"` // 1 = healthy, 0 = unhealthy
	Cache     int              `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime    int              `json:"uptime"`   // seconds
	Submitter *SubmitterHealth `json:"submitter,omitempty"`
}

type SubmitterHealth struct {
	Limiter ratelimit.WindowSnapshot `json:"limiter"`
	Breaker *circuitbreaker.Metrics  `json:"breaker,omitempty"`
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	submitter SubmissionStatus
	startTime time.Time
}

func NewMonitoringController(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	submitter SubmissionStatus,
	limiters factory.RateLimiterFactory,
) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		submitter: submitter,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			monitoringRateLimiter := createMonitoringRateLimiter(limiters)

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

// createMonitoringRateLimiter is stricter than the default budget and shares its backend when a factory is given.
func createMonitoringRateLimiter(limiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	if limiters != nil {
		return limiters.CreateRateLimiterWith(monitoringRequestsPerMinute, time.Minute)
	}
	return ratelimit.NewInMemoryRateLimiter(monitoringRequestsPerMinute, time.Minute)
}

func (ctrl *MonitoringController) healthCheck(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	healthStatus := ctrl.performHealthChecks(ctx, logger)

	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       healthStatus,
		Message:    "crpt-gateway health check completed",
	}
}

func (ctrl *MonitoringController) monitor(
	c *router.RequestContext,
) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       "Monitoring endpoint is operational.",
		Message:    "Monitoring successful",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Status: "ok",
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)
	checkCacheConnectivity(ctx, ctrl, &status, logger)
	status.Submitter = ctrl.submitterHealth()

	if status.Database == 0 {
		status.Status = "degraded"
	}
	if status.Submitter != nil && status.Submitter.Breaker != nil && status.Submitter.Breaker.State == circuitbreaker.Open {
		status.Status = "degraded"
	}

	return status
}

func (ctrl *MonitoringController) submitterHealth() *SubmitterHealth {
	if ctrl.submitter == nil {
		return nil
	}

	health := &SubmitterHealth{Limiter: ctrl.submitter.Limiter().Snapshot()}
	if breaker := ctrl.submitter.Breaker(); breaker != nil {
		m := breaker.Metrics()
		health.Breaker = &m
	}
	return health
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		status.Cache = 0
		logger.Info("Cache not configured, cache health check skipped")
		return
	}

	if ctrl.checkCache(ctx) {
		status.Cache = 1
		logger.Info("Cache health check passed")
	} else {
		status.Cache = 0
		logger.Error("Cache health check failed")
	}
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		logger.Info("Database health check passed")
	} else {
		status.Database = 0
		logger.Error("Database health check failed")
	}
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}

func (ctrl *MonitoringController) checkCache(ctx context.Context) bool {
	return ctrl.cache.Ping(ctx) == nil
}
