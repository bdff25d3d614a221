package domain

import (
	"context"

	"github.com/akeren/crpt-gateway/config"
	"github.com/akeren/crpt-gateway/domain/documents"
	"github.com/akeren/crpt-gateway/domain/monitoring"
	"github.com/akeren/crpt-gateway/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	var limiters factory.RateLimiterFactory
	if appConfig.Factories != nil {
		limiters = appConfig.Factories.RateLimiterFactory
	}

	var signatureHeader string
	if appConfig.SubmitterSettings != nil {
		signatureHeader = appConfig.SubmitterSettings.SignatureHeader
	}

	// Keep a nil *submitter.Submitter out of the interfaces below.
	var (
		submissions monitoring.SubmissionStatus
		sender      documents.DocumentSubmitter
	)
	if appConfig.Submitter != nil {
		submissions = appConfig.Submitter
		sender = appConfig.Submitter
	}

	monitoringFactory := monitoring.NewMonitoringControllerFactory(
		appConfig.DB,
		appConfig.Logger,
		appConfig.Cache,
		submissions,
		limiters,
	)
	appConfig.RouterService.MountController(monitoringFactory.CreateController())

	documentsFactory := documents.NewDocumentServiceFactory(
		appConfig.DB,
		appConfig.Logger,
		sender,
		appConfig.Cache,
		documents.ControllerConfig{SignatureHeader: signatureHeader, Limiters: limiters},
	)
	appConfig.RouterService.MountController(documentsFactory.CreateController())

	startReceiptRetention(appConfig)
}

func startReceiptRetention(appConfig *config.ApplicationConfig) {
	if appConfig.Config == nil {
		return
	}

	pruner := documents.NewReceiptPruner(documents.NewReceiptRepository(appConfig.DB), appConfig.Config.ReceiptRetention, appConfig.Logger)
	scheduler := documents.NewRetentionScheduler(pruner, appConfig.Config.ReceiptPruneSchedule, appConfig.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		cancel()
		appConfig.Logger.Error("Receipt retention scheduler not started", "error", err)
		return
	}
	appConfig.OnCleanup(func() {
		cancel()
		scheduler.Stop()
	})
}
