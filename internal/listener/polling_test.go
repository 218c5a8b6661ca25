package listener

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoller struct {
	mu      sync.Mutex
	configs []tgbotapi.UpdateConfig
	ch      chan tgbotapi.Update
	stops   int
}

func newFakePoller() *fakePoller {
	return &fakePoller{ch: make(chan tgbotapi.Update, 8)}
}

func (f *fakePoller) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, config)
	return f.ch
}

func (f *fakePoller) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	close(f.ch)
}

func (f *fakePoller) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func TestPolling_DeliversUntilStopped(t *testing.T) {
	poller := newFakePoller()
	l := NewPolling(poller, WithPollTimeout(5))

	updates := l.Updates()
	poller.ch <- tgbotapi.Update{UpdateID: 1}
	poller.ch <- tgbotapi.Update{UpdateID: 2}

	assert.Equal(t, 1, (<-updates).UpdateID)
	assert.Equal(t, 2, (<-updates).UpdateID)

	l.StopToken().Stop()
	l.StopToken().Stop()

	select {
	case _, ok := <-updates:
		assert.False(t, ok, "sequence should end after stop")
	case <-time.After(time.Second):
		t.Fatal("sequence not closed after stop")
	}
	assert.Equal(t, 1, poller.stopCount())

	require.Len(t, poller.configs, 1)
	assert.Equal(t, 5, poller.configs[0].Timeout)
}

func TestPolling_HintAllowedUpdates(t *testing.T) {
	poller := newFakePoller()
	l := NewPolling(poller)

	l.HintAllowedUpdates([]string{tgbotapi.UpdateTypeMessage, tgbotapi.UpdateTypeCallbackQuery})
	l.Updates()
	l.HintAllowedUpdates([]string{tgbotapi.UpdateTypePoll})

	require.Len(t, poller.configs, 1)
	assert.Equal(t, []string{"message", "callback_query"}, poller.configs[0].AllowedUpdates)

	l.StopToken().Stop()
}

func TestPolling_StoppedBeforeStart(t *testing.T) {
	poller := newFakePoller()
	l := NewPolling(poller)
	l.StopToken().Stop()

	_, ok := <-l.Updates()
	assert.False(t, ok)
	assert.Empty(t, poller.configs)
}
