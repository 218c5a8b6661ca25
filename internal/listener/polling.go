package listener

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// Poller is the part of *tgbotapi.BotAPI used for long polling.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ Poller = (*tgbotapi.BotAPI)(nil)

// DefaultPollTimeout is the getUpdates long poll timeout in seconds.
const DefaultPollTimeout = 60

// PollingOption configures a Polling listener.
type PollingOption func(*Polling)

// WithPollTimeout sets the getUpdates timeout in seconds.
func WithPollTimeout(seconds int) PollingOption {
	return func(p *Polling) {
		p.timeout = seconds
	}
}

// WithPollingLogger sets the logger.
func WithPollingLogger(logger *zap.SugaredLogger) PollingOption {
	return func(p *Polling) {
		p.logger = logger
	}
}

// Polling receives updates with getUpdates long polling.
type Polling struct {
	poller  Poller
	timeout int
	logger  *zap.SugaredLogger

	token stop.Token
	flag  stop.Flag

	mu      sync.Mutex
	allowed []string
	started bool

	once sync.Once
	out  chan tgbotapi.Update
}

var _ UpdateListener = (*Polling)(nil)

// NewPolling creates a long polling listener. Polling starts on the first
// call to Updates.
func NewPolling(poller Poller, opts ...PollingOption) *Polling {
	token, flag := stop.New()
	p := &Polling{
		poller:  poller,
		timeout: DefaultPollTimeout,
		logger:  zap.NewNop().Sugar(),
		token:   token,
		flag:    flag,
		out:     make(chan tgbotapi.Update),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Updates starts polling on first use and returns the update sequence.
func (p *Polling) Updates() <-chan tgbotapi.Update {
	p.once.Do(p.start)
	return p.out
}

// StopToken returns the token that ends polling.
func (p *Polling) StopToken() stop.Token {
	return p.token
}

// HintAllowedUpdates sets allowed_updates for getUpdates. It only has an
// effect before polling starts.
func (p *Polling) HintAllowedUpdates(kinds []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		p.logger.Warnw("allowed updates hint ignored, polling already started", "kinds", kinds)
		return
	}
	p.allowed = append([]string(nil), kinds...)
}

func (p *Polling) start() {
	p.mu.Lock()
	p.started = true
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	cfg.AllowedUpdates = p.allowed
	p.mu.Unlock()

	if p.flag.IsStopped() {
		close(p.out)
		return
	}

	in := p.poller.GetUpdatesChan(cfg)
	p.logger.Infow("polling for updates", "timeout", p.timeout, "allowed_updates", cfg.AllowedUpdates)

	go func() {
		<-p.flag.Done()
		p.logger.Infow("stopping update polling")
		p.poller.StopReceivingUpdates()
	}()

	go func() {
		defer close(p.out)
		for update := range in {
			p.out <- update
		}
	}()
}
