package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// buildStatusKeyboard builds inline keyboard for /status command
func buildStatusKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "action:refresh"),
		),
	)
}
