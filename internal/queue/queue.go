package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Push after Close.
var ErrClosed = errors.New("queue closed")

// Unbounded is a FIFO queue whose Push never blocks. Items are delivered on
// the channel returned by Out, which is closed once the queue is closed and
// every pushed item has been received.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	signal chan struct{}
	out    chan T
}

// New creates a queue and starts its delivery goroutine. The goroutine exits
// after Close once the backlog is drained, so consumers must read Out until it
// is closed.
func New[T any]() *Unbounded[T] {
	q := &Unbounded[T]{
		signal: make(chan struct{}, 1),
		out:    make(chan T),
	}
	go q.pump()
	return q
}

// Push appends v to the queue.
func (q *Unbounded[T]) Push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.notify()
	return nil
}

// Close stops accepting new items. Safe to call more than once.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notify()
}

// Out returns the consumer end of the queue.
func (q *Unbounded[T]) Out() <-chan T {
	return q.out
}

// Len returns the number of items not yet handed to the consumer.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Unbounded[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Unbounded[T]) pump() {
	defer close(q.out)

	var zero T
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.signal
			continue
		}
		item := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		q.out <- item
	}
}
