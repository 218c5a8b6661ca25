package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleCommand routes commands to handlers
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cmd := msg.Command()

	b.logger.Debugw("command", "command", cmd, "args", msg.CommandArguments(), "chat_id", msg.Chat.ID)

	switch cmd {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "status":
		b.handleStatus(msg)
	default:
		b.reply(msg.Chat.ID, fmt.Sprintf("Unknown command: /%s\nUse /help for available commands.", cmd))
	}
}

// handleStart sends welcome message
func (b *Bot) handleStart(msg *tgbotapi.Message) {
	text := `👋 <b>Bot is running</b>

Updates are delivered via ` + b.mode + `.

Use /help to see available commands.`
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	var sb strings.Builder

	sb.WriteString("🔧 <b>Available Commands</b>\n\n")
	sb.WriteString("ℹ️ /status - Update source and counters\n")
	sb.WriteString("ℹ️ /help - This message\n")

	b.reply(msg.Chat.ID, sb.String())
}

// handleStatus sends status with refresh button
func (b *Bot) handleStatus(msg *tgbotapi.Message) {
	b.replyWithKeyboard(msg.Chat.ID, b.buildStatusMessage(), buildStatusKeyboard())
}

func (b *Bot) buildStatusMessage() string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Status</b>\n\n")
	sb.WriteString(fmt.Sprintf("Mode: <code>%s</code>\n", b.mode))
	if b.mode == "webhook" && b.config.Webhook.URL != "" {
		sb.WriteString(fmt.Sprintf("Webhook: <code>%s</code>\n", b.config.Webhook.URL))
	}
	sb.WriteString(fmt.Sprintf("Uptime: %s\n", time.Since(b.started).Truncate(time.Second)))
	sb.WriteString(fmt.Sprintf("Updates handled: %d\n", b.handled.Load()))

	return sb.String()
}

// handleCallback handles inline keyboard button presses
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	// Check cooldown (1 second per chat)
	if b.checkCooldown(callback.Message.Chat.ID) {
		b.answerCallback(callback.ID, "⏳ Please wait...")
		return
	}

	parts := strings.Split(callback.Data, ":")
	if len(parts) < 2 {
		b.answerCallback(callback.ID, "❌ Invalid callback data")
		return
	}

	b.logger.Debugw("callback", "data", callback.Data, "chat_id", callback.Message.Chat.ID)

	switch parts[0] {
	case "action":
		b.handleActionCallback(callback, parts[1])
	default:
		b.answerCallback(callback.ID, "❌ Unknown action")
	}
}

// handleActionCallback handles action button press
func (b *Bot) handleActionCallback(callback *tgbotapi.CallbackQuery, action string) {
	switch action {
	case "refresh":
		b.editMessageWithKeyboard(callback.Message.Chat.ID, callback.Message.MessageID, b.buildStatusMessage(), buildStatusKeyboard())
		b.answerCallback(callback.ID, "🔄 Refreshed")
	default:
		b.answerCallback(callback.ID, "❌ Unknown action")
	}
}
