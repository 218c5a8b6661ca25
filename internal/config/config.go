package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/scinfra-pro/tg-webhook/internal/webhook"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
	S3       S3Config       `yaml:"s3"`
}

type TelegramConfig struct {
	Token           string  `yaml:"token" env:"TELEGRAM_TOKEN"`
	APIEndpoint     string  `yaml:"api_endpoint" env:"TELEGRAM_API_ENDPOINT"` // Bot API endpoint format, e.g. https://api.telegram.org/bot%s/%s
	AllowedChatIDs  []int64 `yaml:"allowed_chat_ids" env:"TELEGRAM_ALLOWED_CHAT_IDS" envSeparator:","`
	Debug           bool    `yaml:"debug" env:"TELEGRAM_DEBUG"`
	NotifyLifecycle bool    `yaml:"notify_lifecycle" env:"TELEGRAM_NOTIFY_LIFECYCLE"` // Announce start and stop to AllowedChatIDs
}

// WebhookConfig configures the webhook receiver.
// When Enabled=false the bot falls back to long polling.
type WebhookConfig struct {
	Enabled            bool          `yaml:"enabled" env:"WEBHOOK_ENABLED"`
	URL                string        `yaml:"url" env:"WEBHOOK_URL"`                 // Public URL registered with Telegram
	Listen             string        `yaml:"listen" env:"WEBHOOK_LISTEN"`           // host:port
	SocketPath         string        `yaml:"socket_path" env:"WEBHOOK_SOCKET_PATH"` // Unix socket, takes precedence over Listen
	SecretToken        string        `yaml:"secret_token" env:"WEBHOOK_SECRET_TOKEN"`
	MaxConnections     int           `yaml:"max_connections" env:"WEBHOOK_MAX_CONNECTIONS"`
	AllowedUpdates     []string      `yaml:"allowed_updates" env:"WEBHOOK_ALLOWED_UPDATES" envSeparator:","`
	DropPendingUpdates bool          `yaml:"drop_pending_updates" env:"WEBHOOK_DROP_PENDING_UPDATES"`
	IPAddress          string        `yaml:"ip_address" env:"WEBHOOK_IP_ADDRESS"`
	MaxBodySize        int64         `yaml:"max_body_size" env:"WEBHOOK_MAX_BODY_SIZE"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"WEBHOOK_SHUTDOWN_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // json or console
}

// Load reads configuration from YAML file, applies environment overrides
// and, when enabled, secrets stored in S3.
func Load(ctx context.Context, path string, logger *zap.SugaredLogger) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.S3.Enabled {
		cfg.loadSecrets(ctx, logger)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// loadSecrets fills empty secrets from S3, keeping YAML values on failure.
func (c *Config) loadSecrets(ctx context.Context, logger *zap.SugaredLogger) {
	loader, err := NewS3Loader(ctx, c.S3)
	if err != nil {
		logger.Warnw("s3 secrets unavailable, using yaml", "error", err)
		return
	}
	secrets, err := loader.Load(ctx)
	if err != nil {
		logger.Warnw("s3 secrets unavailable, using yaml", "error", err)
		return
	}
	c.ApplySecrets(secrets)
	logger.Infow("secrets loaded from s3", "bucket", c.S3.Bucket, "key", loader.key)
}

// ApplySecrets fills fields that are still empty.
func (c *Config) ApplySecrets(s *Secrets) {
	if s == nil {
		return
	}
	if c.Telegram.Token == "" {
		c.Telegram.Token = s.BotToken
	}
	if c.Webhook.SecretToken == "" {
		c.Webhook.SecretToken = s.SecretToken
	}
}

// Validate checks required fields and sets defaults
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if len(c.Telegram.AllowedChatIDs) == 0 {
		return fmt.Errorf("telegram.allowed_chat_ids is required")
	}
	if c.Telegram.APIEndpoint == "" {
		c.Telegram.APIEndpoint = "https://api.telegram.org/bot%s/%s"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3 is enabled")
		}
		if c.S3.Key == "" {
			c.S3.Key = "secrets/bot.json"
		}
	}
	return c.Webhook.validate()
}

func (w *WebhookConfig) validate() error {
	// Webhook defaults
	if w.Listen == "" {
		w.Listen = "0.0.0.0:8443"
	}
	if w.MaxBodySize == 0 {
		w.MaxBodySize = webhook.DefaultMaxBodySize
	}
	if w.ShutdownTimeout == 0 {
		w.ShutdownTimeout = webhook.DefaultShutdownTimeout
	}
	if !w.Enabled {
		return nil
	}
	if w.URL == "" {
		return fmt.Errorf("webhook.url is required when webhook is enabled")
	}
	if w.MaxConnections < 0 || w.MaxConnections > 100 {
		return fmt.Errorf("webhook.max_connections must be between 0 and 100")
	}
	if w.SecretToken != "" {
		if err := webhook.CheckSecret([]byte(w.SecretToken)); err != nil {
			return fmt.Errorf("webhook.secret_token: %w", err)
		}
	}
	return nil
}

// WebhookOptions converts the webhook section into listener options.
func (c *Config) WebhookOptions() (webhook.Options, error) {
	w := c.Webhook

	loc := webhook.TCP(w.Listen)
	if w.SocketPath != "" {
		loc = webhook.Unix(w.SocketPath)
	}

	opts, err := webhook.NewOptions(loc, w.URL)
	if err != nil {
		return webhook.Options{}, err
	}
	opts.SecretToken = w.SecretToken
	opts.MaxConnections = w.MaxConnections
	opts.AllowedUpdates = w.AllowedUpdates
	opts.DropPendingUpdates = w.DropPendingUpdates
	opts.IPAddress = w.IPAddress
	opts.MaxBodySize = w.MaxBodySize
	opts.ShutdownTimeout = w.ShutdownTimeout
	return opts, nil
}

// IsAllowedChat checks if chat ID is in allowed list
func (c *Config) IsAllowedChat(chatID int64) bool {
	for _, id := range c.Telegram.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
