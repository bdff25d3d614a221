// Package router hosts the gateway's gin engine: controller mounting, the inbound middleware chain,
// per-route rate limiting and the /metrics endpoint.
package router

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/constants"
	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/akeren/crpt-gateway/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	DefaultTimeoutDuration = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultPort            = "8080"

	redisProbeTimeout = 2 * time.Second
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

// RouterConfig holds the inbound HTTP settings. Zero fields are filled from the environment
// (APP_PORT, MAX_REQUEST_BODY_BYTES, TRUSTED_PROXIES, CORS_ALLOWED_ORIGIN, CRPT_SIGNATURE_HEADER).
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	Port         string
	MaxBodyBytes int64

	// TrustedProxies nil means "read TRUSTED_PROXIES"; an empty, non-nil slice trusts nobody.
	TrustedProxies     []string
	CORSAllowedOrigins []string

	// SignatureHeader is allowed through CORS preflight so browser clients can submit documents.
	SignatureHeader string

	// Registry is served on /metrics. Nil creates a private registry.
	Registry *prometheus.Registry
}

func (cfg RouterConfig) withDefaults() RouterConfig {
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = constants.DefaultRateLimitRequests
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = constants.DefaultRateLimitWindow()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeoutDuration
	}
	if cfg.Port == "" {
		cfg.Port = utils.GetEnvTrimmedOrDefault("APP_PORT", DefaultPort)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
		if n, err := utils.EnvPositiveInt("MAX_REQUEST_BODY_BYTES", 0); err == nil && n > 0 {
			cfg.MaxBodyBytes = int64(n)
		}
	}
	if cfg.TrustedProxies == nil {
		cfg.TrustedProxies = trustedProxiesFromEnv()
	}
	if cfg.CORSAllowedOrigins == nil {
		cfg.CORSAllowedOrigins = utils.EnvList("CORS_ALLOWED_ORIGIN")
	}
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = utils.GetEnvTrimmedOrDefault("CRPT_SIGNATURE_HEADER", constants.DefaultSignatureHeader)
	}
	return cfg
}

// trustedProxiesFromEnv returns an empty list when TRUSTED_PROXIES is unset so ClientIP() falls
// back to RemoteAddr. "*" trusts every hop and is meant for local setups.
func trustedProxiesFromEnv() []string {
	proxies := utils.EnvList("TRUSTED_PROXIES")
	if len(proxies) == 1 && proxies[0] == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	if proxies == nil {
		return []string{}
	}
	return proxies
}

type RouterService struct {
	engine *gin.Engine
	server *http.Server
	logger *log.Logger
	config RouterConfig

	rateLimiter ratelimit.RateLimiter
	redisClient *redis.Client
	metrics     *metrics

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]limiterBinding
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	var cfg RouterConfig
	if routerConfig != nil {
		cfg = *routerConfig
	}
	cfg = cfg.withDefaults()

	if mode, ok := os.LookupEnv("GIN_MODE"); ok && mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName(), otelgin.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		})))
		logger.Info("Tracing middleware enabled")
	}

	if len(cfg.TrustedProxies) == 0 {
		_ = engine.SetTrustedProxies(nil)
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	} else if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	}

	rs := &RouterService{
		engine:                 engine,
		logger:                 logger,
		config:                 cfg,
		redisClient:            redisClientOf(cache),
		rateLimitOverrides:     make(map[string]limiterBinding),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting()
	rs.mountMetrics()
	rs.useMiddlewares()

	engine.NoRoute(rs.fallbackHandler(http.StatusNotFound, "Route not found"))
	engine.NoMethod(rs.fallbackHandler(http.StatusMethodNotAllowed, "Method not allowed"))

	rs.server = newHTTPServer(engine, cfg)

	logger.Info("Router service initialized",
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout.String(),
		"max_body_bytes", cfg.MaxBodyBytes,
	)
	return rs
}

func redisClientOf(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

// initRateLimiting prefers Redis so several gateway replicas share one inbound budget, and falls
// back to an in-process limiter when Redis is absent or unreachable.
func (routerService *RouterService) initRateLimiting() {
	redisClient := routerService.redisClient
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.config.RateLimitRequests,
		Window:   routerService.config.RateLimitWindow,
		Redis:    redisClient,
		Logger:   routerService.logger,
	})

	backend := "memory"
	if redisClient != nil {
		backend = "redis"
	}
	routerService.logger.Info("Inbound rate limiting initialized",
		"backend", backend,
		"requests", routerService.config.RateLimitRequests,
		"window", routerService.config.RateLimitWindow.String(),
	)
}

func (routerService *RouterService) fallbackHandler(status int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		routerService.logger.WithCorrelationID(c.Request.Context()).Warn(message,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.JSON(status, ErrorResult(status, message, nil).ToJSON())
	}
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
		"handlers", controller.handlerCount,
	)
}
