package router

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/crpt-gateway/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

const globalScope = "global"

// limiterBinding pairs an override limiter with the key prefix its counters live under. Routes
// bound to the same limiter instance share a scope, and therefore a budget.
type limiterBinding struct {
	limiter ratelimit.RateLimiter
	scope   string
}

func (routerService *RouterService) bindOverrideRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, found := routerService.rateLimitOverrides[key]; found {
		panic("a rate limiter is already registered for '" + key + "'")
	}

	scope := key
	for _, existing := range routerService.rateLimitOverrides {
		if existing.limiter == limiter {
			scope = existing.scope
			break
		}
	}
	routerService.rateLimitOverrides[key] = limiterBinding{limiter: limiter, scope: scope}
}

// limiterFor resolves the limiter for a matched route: a handler override beats a controller
// override, which beats the global limiter.
func (routerService *RouterService) limiterFor(c *gin.Context) limiterBinding {
	handlerKey := routeKey(c.Request.Method, c.FullPath())
	if binding, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return binding
	}

	if controller, ok := routerService.handlerToControllerMap[handlerKey]; ok {
		if binding, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
			return binding
		}
	} else {
		routerService.logger.Warn("Route has no owning controller; applying the global rate limit",
			"method", c.Request.Method,
			"route", c.FullPath(),
		)
	}

	return limiterBinding{limiter: routerService.rateLimiter, scope: globalScope}
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Unmatched paths fall through to NoRoute/NoMethod.
		if c.FullPath() == "" {
			c.Next()
			return
		}

		binding := routerService.limiterFor(c)
		if binding.limiter == nil {
			c.Next()
			return
		}

		limit, window := binding.limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		clientIP := c.ClientIP()
		limited, err := binding.limiter.IsLimited(c.Request.Context(), "ratelimit:"+binding.scope+":"+clientIP)
		if err != nil {
			// Fail open: an unavailable limiter backend must not block submissions.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP, "scope", binding.scope)
			c.Next()
			return
		}
		if !limited {
			c.Next()
			return
		}

		retryAfter := strconv.Itoa(retryAfterSeconds(window))
		routerService.logger.WithCorrelationID(c.Request.Context()).Warn("Inbound rate limit exceeded",
			"client_ip", clientIP,
			"route", c.FullPath(),
			"scope", binding.scope,
		)
		if routerService.metrics != nil {
			routerService.metrics.rateLimited.WithLabelValues(c.FullPath()).Inc()
		}

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
			Limit:      limit,
			Window:     window.String(),
			RetryAfter: retryAfter,
		}).ToJSON())
	}
}

func retryAfterSeconds(window time.Duration) int {
	return max(1, int(math.Ceil(window.Seconds())))
}
