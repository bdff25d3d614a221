package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second

	// writeGrace leaves room to write the 408 after a handler hits the request deadline, which
	// happens when a submission waits out its slot.
	writeGrace = 5 * time.Second
)

// newHTTPServer enforces request time limits server-side. Handlers never run on a separate
// goroutine because gin.Context is not safe for concurrent use.
func newHTTPServer(handler *gin.Engine, cfg RouterConfig) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + writeGrace,
		IdleTimeout:       idleTimeout,
	}
}

// RunHTTPServer blocks until the server stops. A graceful Shutdown is not an error.
func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	err := routerService.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}

// Cleanup releases every limiter the router owns, including route overrides.
func (routerService *RouterService) Cleanup() {
	closeLimiter := func(scope string, closer interface{ Close() error }) {
		if err := closer.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "scope", scope, "error", err)
		}
	}

	if routerService.rateLimiter != nil {
		closeLimiter(globalScope, routerService.rateLimiter)
	}
	for scope, binding := range routerService.rateLimitOverrides {
		closeLimiter(scope, binding.limiter)
	}
	routerService.logger.Info("Router service cleanup completed")
}
