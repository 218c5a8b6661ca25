package webhook

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/scinfra-pro/tg-webhook/internal/queue"
)

// ClosableSender holds the producer end of the update queue so that it can be
// withdrawn on shutdown while request handlers still hold producers.
//
// The queue itself is closed once the sender is closed and every producer
// handed out by Get has been released.
type ClosableSender struct {
	mu    sync.RWMutex
	queue *queue.Unbounded[tgbotapi.Update]

	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Producer is a handle for sending updates. It stays usable after the
// ClosableSender is closed, until Release is called.
type Producer struct {
	queue    *queue.Unbounded[tgbotapi.Update]
	release  func()
	released sync.Once
}

// NewClosableSender wraps q.
func NewClosableSender(q *queue.Unbounded[tgbotapi.Update]) *ClosableSender {
	return &ClosableSender{queue: q}
}

// Get returns a producer, or nil if the sender is closed.
func (s *ClosableSender) Get() *Producer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.queue == nil {
		return nil
	}
	s.inflight.Add(1)
	return &Producer{queue: s.queue, release: s.inflight.Done}
}

// Close withdraws the producer end. It does not wait for outstanding
// producers and may be called any number of times.
func (s *ClosableSender) Close() {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()

	if q == nil {
		return
	}
	s.closeOnce.Do(func() {
		go func() {
			s.inflight.Wait()
			q.Close()
		}()
	})
}

// Closed reports whether Close has been called.
func (s *ClosableSender) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue == nil
}

// Send enqueues update.
func (p *Producer) Send(update tgbotapi.Update) error {
	return p.queue.Push(update)
}

// Release returns the producer. Safe to call more than once.
func (p *Producer) Release() {
	p.released.Do(p.release)
}
