package webhook

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

//go:generate mockgen -destination=mocks/mock_requester.go -package=mocks github.com/scinfra-pro/tg-webhook/internal/webhook Requester

// Requester is the part of the Bot API client used to manage the webhook.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Requester = (*tgbotapi.BotAPI)(nil)

// SetupWebhook registers opts with Telegram. If opts has no secret token a
// random one is generated and stored in opts.
func SetupWebhook(bot Requester, opts *Options) error {
	if opts.URL == nil {
		return errors.New("webhook url is required")
	}

	if opts.SecretToken == "" {
		opts.SecretToken = GenerateSecret()
	} else if err := CheckSecret([]byte(opts.SecretToken)); err != nil {
		return fmt.Errorf("invalid secret token: %w", err)
	}

	params := tgbotapi.Params{"url": opts.URL.String()}
	params.AddNonEmpty("secret_token", opts.SecretToken)
	params.AddNonEmpty("ip_address", opts.IPAddress)
	params.AddNonZero("max_connections", opts.MaxConnections)
	params.AddBool("drop_pending_updates", opts.DropPendingUpdates)
	if len(opts.AllowedUpdates) > 0 {
		if err := params.AddInterface("allowed_updates", opts.AllowedUpdates); err != nil {
			return fmt.Errorf("encode allowed updates: %w", err)
		}
	}

	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the webhook registration.
func DeleteWebhook(bot Requester, dropPending bool) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}
