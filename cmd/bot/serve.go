package main

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/config"
	"github.com/scinfra-pro/tg-webhook/internal/listener"
	"github.com/scinfra-pro/tg-webhook/internal/logging"
	"github.com/scinfra-pro/tg-webhook/internal/telegram"
	"github.com/scinfra-pro/tg-webhook/internal/webhook"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Receive and handle updates until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

// setup loads configuration, builds the logger and authorizes the bot.
func setup(ctx context.Context, configPath string) (*config.Config, *zap.SugaredLogger, *tgbotapi.BotAPI, error) {
	boot, err := zap.NewProduction()
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(ctx, configPath, boot.Sugar())
	if err != nil {
		boot.Sugar().Errorw("failed to load config", "path", configPath, "error", err)
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	_ = tgbotapi.SetLogger(zap.NewStdLog(logger.Desugar().Named("tgbotapi")))

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Telegram.Token, cfg.Telegram.APIEndpoint)
	if err != nil {
		logger.Errorw("failed to create Telegram bot", "error", err)
		return nil, nil, nil, fmt.Errorf("create bot api: %w", err)
	}
	api.Debug = cfg.Telegram.Debug

	logger.Infow("authorized", "username", api.Self.UserName, "version", version)
	return cfg, logger, api, nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, logger, api, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var (
		l    listener.UpdateListener
		wait = func(context.Context) error { return nil }
		mode = "polling"
	)

	if cfg.Webhook.Enabled {
		opts, err := cfg.WebhookOptions()
		if err != nil {
			return err
		}
		wl, err := webhook.Webhook(api, opts, webhook.WithLogger(logger.With("component", "webhook")))
		if err != nil {
			logger.Errorw("failed to start webhook", "error", err)
			return err
		}
		l, wait, mode = wl, wl.Wait, "webhook"
	} else {
		// getUpdates is refused while a webhook is set
		if err := webhook.DeleteWebhook(api, false); err != nil {
			logger.Errorw("failed to delete webhook before polling", "error", err)
			return err
		}
		l = listener.NewPolling(api, listener.WithPollingLogger(logger.With("component", "polling")))
	}

	bot := telegram.New(api, cfg, mode, logger.With("component", "bot"))
	bot.Announce(fmt.Sprintf("✅ <b>Bot started</b> (%s, %s)", mode, version))

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Run(l)
	}()

	select {
	case <-ctx.Done():
		logger.Infow("shutting down")
		l.StopToken().Stop()
	case <-done:
	}
	<-done
	bot.Announce("🛑 <b>Bot stopped</b>")

	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Webhook.ShutdownTimeout+10*time.Second)
	defer cancel()
	if err := wait(waitCtx); err != nil {
		logger.Errorw("listener stopped with error", "error", err)
		return err
	}

	logger.Infow("goodbye")
	return nil
}
