package webhook

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/queue"
	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// Option configures the webhook constructors.
type Option func(*settings)

type settings struct {
	logger *zap.SugaredLogger
}

// WithLogger sets the logger used by the endpoint, server and teardown.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(options []Option) settings {
	s := settings{logger: zap.NewNop().Sugar()}
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// Webhook registers the webhook, binds opts.Location and serves updates until
// the listener is stopped. On stop the webhook is deleted, then the server
// drains in-flight requests.
//
// Registration and bind errors are returned. A bind failure stops the
// listener and waits for the webhook to be deleted first.
func Webhook(bot Requester, opts Options, options ...Option) (*Listener, error) {
	cfg := newSettings(options)
	opts = opts.withDefaults()

	l, teardown, router, err := ToRouter(bot, opts, options...)
	if err != nil {
		return nil, err
	}

	srv := NewServer(opts.Location, router,
		WithServerLogger(cfg.logger),
		WithShutdownTimeout(opts.ShutdownTimeout),
	)
	ln, err := srv.Bind()
	if err != nil {
		l.StopToken().Stop()
		<-teardown
		return nil, err
	}

	finish := l.attachServer()
	go func() {
		finish(srv.Serve(ln, teardown, l.StopToken()))
	}()

	return l, nil
}

// ToRouter registers the webhook and returns the listener, a channel closed
// once the listener is stopped and the webhook deleted, and the handler to
// mount on an existing server bound to opts.Location.
func ToRouter(bot Requester, opts Options, options ...Option) (*Listener, <-chan struct{}, http.Handler, error) {
	cfg := newSettings(options)

	if err := SetupWebhook(bot, &opts); err != nil {
		return nil, nil, nil, err
	}
	cfg.logger.Infow("webhook registered",
		"host", opts.URL.Host,
		"allowed_updates", opts.AllowedUpdates,
	)

	l, flag, router := NoSetup(opts, options...)

	teardown := make(chan struct{})
	go func() {
		defer close(teardown)
		<-flag.Done()
		if err := DeleteWebhook(bot, false); err != nil {
			cfg.logger.Errorw("couldn't delete webhook", "error", err)
			return
		}
		cfg.logger.Infow("webhook deleted")
	}()

	return l, teardown, router, nil
}

// NoSetup builds the listener and handler without talking to Telegram. The
// returned flag fires when the listener is stopped; after that no request is
// enqueued even if the handler keeps being served.
func NoSetup(opts Options, options ...Option) (*Listener, stop.Flag, http.Handler) {
	cfg := newSettings(options)
	opts = opts.withDefaults()

	q := queue.New[tgbotapi.Update]()
	token, flag := stop.New()
	sender := NewClosableSender(q)

	state := newEndpointState(sender, flag, opts, cfg.logger)
	router := newRouter(opts.Path(), state, cfg.logger)

	go func() {
		<-flag.Done()
		sender.Close()
	}()

	return newListener(q, token, cfg.logger), flag, router
}
