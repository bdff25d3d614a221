package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/constants"
	"github.com/akeren/crpt-gateway/pkg/factory"
	"github.com/akeren/crpt-gateway/pkg/migrations"
	"github.com/akeren/crpt-gateway/pkg/submitter"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB                *gorm.DB
	DatabaseDriver    string
	RouterService     *router.RouterService
	Logger            *log.Logger
	Cache             Cache
	Config            *AppConfig
	Submitter         *submitter.Submitter
	SubmitterSettings *SubmitterSettings
	Registry          *prometheus.Registry
	Factories         *factory.FactoryContainer
	TracingShutdown   func(context.Context) error

	cleanups []func()
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	// ReceiptRetention <= 0 keeps receipts forever.
	ReceiptRetention     time.Duration
	ReceiptPruneSchedule string
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests: constants.DefaultRateLimitRequests,
		RateLimitWindow:   constants.DefaultRateLimitWindow(),
		RequestTimeout:    30 * time.Second, // Default request timeout

		ReceiptRetention:     constants.DefaultReceiptRetention,
		ReceiptPruneSchedule: constants.DefaultReceiptPruneSchedule,
	}

	// Override from environment variables
	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			config.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			config.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			config.RequestTimeout = parsed
		}
	}

	if retStr, ok := os.LookupEnv("RECEIPT_RETENTION"); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(retStr)); err == nil {
			config.ReceiptRetention = parsed
		}
	}

	if schedule, ok := os.LookupEnv("RECEIPT_PRUNE_SCHEDULE"); ok {
		config.ReceiptPruneSchedule = strings.TrimSpace(schedule)
	}

	return config
}

// OnCleanup registers fn to run first during Cleanup, in reverse registration order.
func (ac *ApplicationConfig) OnCleanup(fn func()) {
	ac.cleanups = append(ac.cleanups, fn)
}

func (ac *ApplicationConfig) Cleanup() {
	for i := len(ac.cleanups) - 1; i >= 0; i-- {
		ac.cleanups[i]()
	}

	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	registry := router.NewMetricsRegistry()

	// A bad submitter budget must stop startup before any connection is opened.
	submitterService, settings, err := NewSubmitter(logger, registry)
	if err != nil {
		return nil, err
	}

	dbCfg := NewDBConfigFromEnv()
	if autoMigrate {
		if err := RunMigrations(context.Background(), logger, dbCfg); err != nil {
			return nil, err
		}
	}

	db, err := NewDatabase(logger, dbCfg)
	if err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()
	cache := LoadCacheOrNil(logger)

	factories := factory.NewFactoryContainer(&factory.RateLimitConfig{
		Requests: appConfig.RateLimitRequests,
		Window:   appConfig.RateLimitWindow,
		Logger:   logger,
	}, cache)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		SignatureHeader:   settings.SignatureHeader,
		Registry:          registry,
	})

	logger.Info("Application configuration loaded successfully",
		"database_driver", dbCfg.Driver,
		"submit_limit", settings.RequestLimit,
		"submit_window", settings.TimeUnit.String(),
		"distributed_rate_limit", factories.RateLimiterFactory.Distributed(),
	)

	return &ApplicationConfig{
		DB:                db,
		DatabaseDriver:    dbCfg.Driver,
		RouterService:     routerService,
		Logger:            logger,
		Cache:             cache,
		Config:            appConfig,
		Submitter:         submitterService,
		SubmitterSettings: settings,
		Registry:          registry,
		Factories:         factories,
		TracingShutdown:   tracingShutdown,
	}, nil
}

// RunMigrations applies the versioned SQL migrations on a dedicated connection, which the
// migrator closes when it finishes.
func RunMigrations(ctx context.Context, logger *log.Logger, cfg *DBConfig) error {
	if cfg == nil {
		cfg = NewDBConfigFromEnv()
	}

	db, err := NewDatabase(logger, cfg)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}

	return migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:    GetValueFromEnvironmentVariable("MIGRATIONS_DIR", ""),
		Driver: cfg.Driver,
		Logger: logger,
	})
}
