package telegram

import (
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/config"
	"github.com/scinfra-pro/tg-webhook/internal/listener"
)

//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks github.com/scinfra-pro/tg-webhook/internal/telegram Sender

// Sender delivers replies to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Sender = (*tgbotapi.BotAPI)(nil)

// AllowedUpdates are the update kinds the bot handles.
var AllowedUpdates = []string{"message", "callback_query"}

// Bot represents the Telegram bot
type Bot struct {
	api    Sender
	config *config.Config
	mode   string
	logger *zap.SugaredLogger

	started time.Time
	handled atomic.Int64

	// Cooldown tracking for callback spam protection
	callbackCooldown map[int64]time.Time
	cooldownMu       sync.Mutex
}

// New creates a new Telegram bot. mode names the update source shown by
// /status ("webhook" or "polling").
func New(api Sender, cfg *config.Config, mode string, logger *zap.SugaredLogger) *Bot {
	return &Bot{
		api:              api,
		config:           cfg,
		mode:             mode,
		logger:           logger,
		started:          time.Now(),
		callbackCooldown: make(map[int64]time.Time),
	}
}

// Run consumes updates from l until its update sequence ends.
func (b *Bot) Run(l listener.UpdateListener) {
	l.HintAllowedUpdates(AllowedUpdates)

	b.logger.Infow("bot started, waiting for updates", "mode", b.mode)

	for update := range l.Updates() {
		b.Handle(update)
	}

	b.logger.Infow("update stream closed", "handled", b.handled.Load())
}

// Handle dispatches a single update.
func (b *Bot) Handle(update tgbotapi.Update) {
	b.handled.Add(1)

	// Handle callback queries (inline keyboard buttons)
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message == nil {
			return
		}
		if !b.config.IsAllowedChat(update.CallbackQuery.Message.Chat.ID) {
			b.logger.Warnw("unauthorized callback", "chat_id", update.CallbackQuery.Message.Chat.ID)
			return
		}
		b.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	// Check authorization
	if !b.config.IsAllowedChat(update.Message.Chat.ID) {
		b.logger.Warnw("unauthorized access", "chat_id", update.Message.Chat.ID)
		return
	}

	// Handle commands
	if update.Message.IsCommand() {
		b.handleCommand(update.Message)
	}
}

// reply sends a message to the chat
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}

// replyWithKeyboard sends a message with inline keyboard
func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Errorw("failed to send message with keyboard", "chat_id", chatID, "error", err)
	}
}

// editMessageWithKeyboard edits existing message with new text and keyboard
func (b *Bot) editMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "HTML"
	edit.ReplyMarkup = &keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Errorw("failed to edit message", "chat_id", chatID, "error", err)
	}
}

// answerCallback answers callback query with optional toast message
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Errorw("failed to answer callback", "error", err)
	}
}

// SendNotification sends a notification to all allowed chats
func (b *Bot) SendNotification(text string) error {
	var lastErr error
	for _, chatID := range b.config.Telegram.AllowedChatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "HTML"
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Errorw("failed to send notification", "chat_id", chatID, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// Announce sends text to all allowed chats when lifecycle notifications are on.
func (b *Bot) Announce(text string) {
	if !b.config.Telegram.NotifyLifecycle {
		return
	}
	if err := b.SendNotification(text); err != nil {
		b.logger.Warnw("lifecycle notification not delivered", "error", err)
	}
}

// checkCooldown checks if chat is in cooldown period (returns true if should skip)
func (b *Bot) checkCooldown(chatID int64) bool {
	b.cooldownMu.Lock()
	defer b.cooldownMu.Unlock()

	lastTime, exists := b.callbackCooldown[chatID]
	if exists && time.Since(lastTime) < time.Second {
		return true // Still in cooldown
	}

	b.callbackCooldown[chatID] = time.Now()
	return false
}
