package router

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/utils"
	"github.com/gin-gonic/gin"
)

const correlationHeader = "X-Correlation-ID"

// useMiddlewares installs the inbound chain. Correlation runs first so every later log line,
// including rate limit rejections, carries the request's correlation ID.
func (routerService *RouterService) useMiddlewares() {
	routerService.engine.Use(
		routerService.requestContextMiddleware(),
		routerService.requestLoggingMiddleware(),
		securityHeadersMiddleware(newHSTSPolicy()),
		routerService.corsMiddleware(),
		routerService.maxBodySizeMiddleware(),
		routerService.rateLimitMiddleware(),
		routerService.timeoutMiddleware(),
	)
}

// requestContextMiddleware adopts or mints the correlation ID, echoes it back and injects a
// correlated logger for handlers.
func (routerService *RouterService) requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Header(correlationHeader, id)

		ctx := log.WithCorrelationIDContext(c.Request.Context(), id)
		ctx = context.WithValue(ctx, log.LoggerKeyForContext, routerService.logger.WithCorrelationID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		}
		logger := GetLogger(c)
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

type hstsPolicy struct {
	enabled bool
	value   string
}

// newHSTSPolicy is on by default in production (APP_ENV) and can be forced with HSTS_ENABLED.
func newHSTSPolicy() hstsPolicy {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	enabled, _ := utils.EnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod")
	maxAge, _ := utils.EnvPositiveInt("HSTS_MAX_AGE", 31536000)
	subdomains, _ := utils.EnvBool("HSTS_INCLUDE_SUBDOMAINS", true)

	value := fmt.Sprintf("max-age=%d", maxAge)
	if subdomains {
		value += "; includeSubDomains"
	}
	return hstsPolicy{enabled: enabled, value: value}
}

// applies only to requests that arrived over TLS, directly or through a terminating proxy.
func (p hstsPolicy) applies(c *gin.Context) bool {
	if !p.enabled {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func securityHeadersMiddleware(hsts hstsPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if hsts.applies(c) {
			h.Set("Strict-Transport-Security", hsts.value)
		}
		c.Next()
	}
}

// maxBodySizeMiddleware caps document payloads; readers past the cap get *http.MaxBytesError.
func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.config.MaxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large", nil).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// corsMiddleware denies cross-origin access unless CORS_ALLOWED_ORIGIN lists the origin or "*".
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	origins := routerService.config.CORSAllowedOrigins
	allowAny := slices.Contains(origins, "*")
	allowHeaders := strings.Join([]string{
		"Content-Type", "Accept", "Origin", "Cache-Control", "X-Requested-With",
		correlationHeader, routerService.config.SignatureHeader,
	}, ", ")
	exposeHeaders := strings.Join([]string{
		correlationHeader, "X-RateLimit-Limit", "X-RateLimit-Window", "Retry-After",
	}, ", ")

	if len(origins) == 0 {
		routerService.logger.Info("CORS disabled (CORS_ALLOWED_ORIGIN not set)")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if !allowAny && !slices.Contains(origins, origin) {
			GetLogger(c).Warn("CORS origin not allowed", "origin", origin)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// timeoutMiddleware bounds the request context; a submission still waiting for an outgoing slot
// at the deadline gives up. A handler that finished late without writing gets a 408.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	timeout := routerService.config.RequestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected", "timeout", timeout.String())
			c.AbortWithStatusJSON(http.StatusRequestTimeout,
				ErrorResult(http.StatusRequestTimeout, "Request timeout", nil).ToJSON())
		}
	}
}
