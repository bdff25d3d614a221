package monitoring

import (
	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/factory"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	submitter SubmissionStatus
	limiters  factory.RateLimiterFactory
}

func NewMonitoringControllerFactory(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	submitter SubmissionStatus,
	limiters factory.RateLimiterFactory,
) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:        db,
		logger:    logger,
		cache:     cache,
		submitter: submitter,
		limiters:  limiters,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.submitter, f.limiters)
}
