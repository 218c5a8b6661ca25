package webhook

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scinfra-pro/tg-webhook/internal/queue"
)

func collect(t *testing.T, ch <-chan tgbotapi.Update) []tgbotapi.Update {
	t.Helper()
	var got []tgbotapi.Update
	timeout := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, u)
		case <-timeout:
			t.Fatalf("update sequence not closed, got %d updates", len(got))
		}
	}
}

func TestClosableSender_CloseIdempotent(t *testing.T) {
	q := queue.New[tgbotapi.Update]()
	s := NewClosableSender(q)

	p := s.Get()
	require.NotNil(t, p)
	p.Release()

	s.Close()
	assert.Nil(t, s.Get())
	s.Close()
	assert.Nil(t, s.Get())
	assert.True(t, s.Closed())
}

func TestClosableSender_OutstandingProducerStaysUsable(t *testing.T) {
	q := queue.New[tgbotapi.Update]()
	s := NewClosableSender(q)

	p := s.Get()
	require.NotNil(t, p)

	s.Close()
	assert.Nil(t, s.Get())

	require.NoError(t, p.Send(tgbotapi.Update{UpdateID: 7}))
	p.Release()
	p.Release()

	got := collect(t, q.Out())
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].UpdateID)
}

func TestClosableSender_QueueClosedAfterLastRelease(t *testing.T) {
	q := queue.New[tgbotapi.Update]()
	s := NewClosableSender(q)

	p := s.Get()
	s.Close()

	select {
	case <-q.Out():
		t.Fatal("queue closed while a producer is outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	p.Release()
	assert.Empty(t, collect(t, q.Out()))
}

func TestClosableSender_ConcurrentGetClose(t *testing.T) {
	q := queue.New[tgbotapi.Update]()
	s := NewClosableSender(q)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if p := s.Get(); p != nil {
				_ = p.Send(tgbotapi.Update{UpdateID: id})
				p.Release()
			}
		}(i)
		if i == 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Close()
			}()
		}
	}
	wg.Wait()
	s.Close()

	assert.LessOrEqual(t, len(collect(t, q.Out())), 32)
}
