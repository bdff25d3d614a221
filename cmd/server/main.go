package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/crpt-gateway/config"
	"github.com/akeren/crpt-gateway/domain"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/spf13/cobra"
)

type serverOptions struct {
	autoMigrate     bool
	shutdownTimeout time.Duration
}

func main() {
	if err := newServerCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	opts := &serverOptions{}

	cmd := &cobra.Command{
		Use:          "crpt-gateway",
		Short:        "Serve the CRPT document gateway HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, log.NewLoggerFromEnv(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.autoMigrate, "auto-migrate", "m", false, "apply pending migrations before serving (development environments only)")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long in-flight submissions may take to finish on shutdown")

	return cmd
}

// serve runs until ctx is cancelled or the listener fails, then drains in-flight requests and
// releases every resource the application configuration opened.
func serve(ctx context.Context, logger *log.Logger, opts *serverOptions) error {
	logger.Info("CRPT gateway starting", "auto_migrate", opts.autoMigrate)

	appConfig, err := config.LoadApplicationConfiguration(logger, opts.autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		return err
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining in-flight requests", "timeout", opts.shutdownTimeout.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	logger.Info("Graceful shutdown completed")
	return nil
}
