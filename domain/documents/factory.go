package documents

import (
	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"gorm.io/gorm"
)

type DocumentServiceFactory interface {
	CreateService() DocumentService
	CreateController() *router.RESTController
}

type DefaultDocumentServiceFactory struct {
	db        *gorm.DB
	logger    *log.Logger
	submitter DocumentSubmitter
	cache     ReceiptCache
	config    ControllerConfig
}

func NewDocumentServiceFactory(db *gorm.DB, logger *log.Logger, submitter DocumentSubmitter, cache ReceiptCache, config ControllerConfig) DocumentServiceFactory {
	return &DefaultDocumentServiceFactory{
		db:        db,
		logger:    logger,
		submitter: submitter,
		cache:     cache,
		config:    config,
	}
}

func (f *DefaultDocumentServiceFactory) CreateService() DocumentService {
	return NewDocumentService(f.logger, f.submitter, NewReceiptRepository(f.db), f.cache)
}

func (f *DefaultDocumentServiceFactory) CreateController() *router.RESTController {
	return NewDocumentsController(f.db, f.logger, f.submitter, f.cache, f.config)
}
