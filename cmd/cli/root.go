package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/akeren/crpt-gateway/config"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/spf13/cobra"
)

type cliOptions struct {
	verbose bool
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "crpt",
		Short: "Operate the CRPT document gateway from the command line",
		Long: `crpt normalizes and submits goods-introduction documents to the registration
service, applying the same outgoing rate limit as the gateway, and manages the
receipts journal (migrations and retention).

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = newCLILogger(cmd.ErrOrStderr(), opts.verbose)
			config.InitializeEnvFile(opts.logger)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newMigrateCmd(opts),
		newNormalizeCmd(opts),
		newSubmitCmd(opts),
		newPruneCmd(opts),
	)

	return root
}

// newCLILogger writes text logs to stderr so command output on stdout stays machine-readable.
func newCLILogger(w io.Writer, verbose bool) *log.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case os.Getenv("LOG_LEVEL") != "":
		level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	}
	return log.NewLogger(w, level, "text")
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
