// Package listener defines how incoming Telegram updates are presented to the
// application, independent of the delivery mode (webhook or long polling).
package listener

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// UpdateListener produces a sequence of updates until it is stopped.
type UpdateListener interface {
	// Updates returns the update sequence. The channel is closed after the
	// listener's stop token fires and buffered updates are delivered. The
	// sequence cannot be restarted.
	Updates() <-chan tgbotapi.Update

	// StopToken returns a token that stops the listener.
	StopToken() stop.Token

	// HintAllowedUpdates tells the listener which update kinds the
	// application is interested in (tgbotapi.UpdateType* values). Listeners
	// may ignore the hint.
	HintAllowedUpdates(kinds []string)
}
