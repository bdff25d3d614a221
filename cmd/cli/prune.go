package main

import (
	"time"

	"github.com/akeren/crpt-gateway/config"
	"github.com/akeren/crpt-gateway/domain/documents"
	"github.com/spf13/cobra"
)

func newPruneCmd(opts *cliOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete submission receipts older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			retention := olderThan
			if retention <= 0 {
				retention = config.NewAppConfig().ReceiptRetention
			}

			db, err := config.NewDatabase(opts.logger, config.NewDBConfigFromEnv())
			if err != nil {
				return err
			}
			defer config.CloseDatabase(db, opts.logger)

			pruner := documents.NewReceiptPruner(documents.NewReceiptRepository(db), retention, opts.logger)
			deleted, err := pruner.Prune(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Deleted %d receipts older than %s\n", deleted, retention)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention period (defaults to RECEIPT_RETENTION)")
	return cmd
}
