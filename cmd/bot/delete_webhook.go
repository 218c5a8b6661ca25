package main

import (
	"github.com/spf13/cobra"

	"github.com/scinfra-pro/tg-webhook/internal/webhook"
)

func newDeleteWebhookCmd(configPath *string) *cobra.Command {
	var dropPending bool

	cmd := &cobra.Command{
		Use:   "delete-webhook",
		Short: "Remove the webhook registration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, api, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := webhook.DeleteWebhook(api, dropPending); err != nil {
				logger.Errorw("failed to delete webhook", "error", err)
				return err
			}
			logger.Infow("webhook deleted", "drop_pending_updates", dropPending)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropPending, "drop-pending", false, "drop pending updates")

	return cmd
}
