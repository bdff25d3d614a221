package main

import (
	"context"
	"time"

	"github.com/akeren/crpt-gateway/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the receipts journal migrations and exit",
		Long: `Apply pending SQL migrations from migrations/<driver> (override with MIGRATIONS_DIR)
to the database selected by APP_DATABASE_DRIVER.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			dbCfg := config.NewDBConfigFromEnv()
			if err := config.RunMigrations(ctx, opts.logger, dbCfg); err != nil {
				return err
			}

			cmd.Println("Database migrations completed")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time to spend migrating")
	return cmd
}
