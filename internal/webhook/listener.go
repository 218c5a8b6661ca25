package webhook

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/listener"
	"github.com/scinfra-pro/tg-webhook/internal/queue"
	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// Listener delivers updates received by the webhook endpoint.
type Listener struct {
	queue  *queue.Unbounded[tgbotapi.Update]
	token  stop.Token
	logger *zap.SugaredLogger

	mu     sync.Mutex
	hints  []string
	served chan struct{}
	err    error
}

var _ listener.UpdateListener = (*Listener)(nil)

func newListener(q *queue.Unbounded[tgbotapi.Update], token stop.Token, logger *zap.SugaredLogger) *Listener {
	return &Listener{queue: q, token: token, logger: logger}
}

// Updates returns the update sequence. It is closed after Stop once the last
// in-flight request has enqueued its update.
func (l *Listener) Updates() <-chan tgbotapi.Update {
	return l.queue.Out()
}

// StopToken returns the token that stops the listener.
func (l *Listener) StopToken() stop.Token {
	return l.token
}

// HintAllowedUpdates records kinds. The webhook is registered before the
// listener exists, so the hint applies to the next registration only.
// TODO: re-register with allowed_updates when the hint differs from Options.AllowedUpdates.
func (l *Listener) HintAllowedUpdates(kinds []string) {
	l.mu.Lock()
	l.hints = append([]string(nil), kinds...)
	l.mu.Unlock()

	l.logger.Debugw("allowed updates hint recorded", "kinds", kinds)
}

// AllowedUpdatesHint returns the kinds passed to HintAllowedUpdates.
func (l *Listener) AllowedUpdatesHint() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.hints...)
}

// Wait blocks until the server started by Webhook has stopped and returns
// its error. Listeners without a managed server return once stopped.
func (l *Listener) Wait(ctx context.Context) error {
	l.mu.Lock()
	served := l.served
	l.mu.Unlock()

	if served == nil {
		return l.token.Flag().Wait(ctx)
	}

	select {
	case <-served:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attachServer marks the listener as owning a server and returns the
// function that reports its termination.
func (l *Listener) attachServer() func(error) {
	served := make(chan struct{})
	l.mu.Lock()
	l.served = served
	l.mu.Unlock()

	return func(err error) {
		l.err = err
		close(served)
	}
}
