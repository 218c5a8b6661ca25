// Package stop provides a one-shot stop signal split into a write half
// (Token) and a read half (Flag). Both halves are plain values and may be
// copied freely; every copy observes the same transition.
package stop

import (
	"context"
	"sync"
	"sync/atomic"
)

type state struct {
	once    sync.Once
	stopped atomic.Bool
	done    chan struct{}
}

// Token is the write half of a stop signal.
type Token struct {
	s *state
}

// Flag is the read half of a stop signal.
type Flag struct {
	s *state
}

// New creates a connected Token/Flag pair.
func New() (Token, Flag) {
	s := &state{done: make(chan struct{})}
	return Token{s: s}, Flag{s: s}
}

// Stop moves the signal to the stopped state. It may be called any number of
// times from any goroutine; only the first call has an effect.
func (t Token) Stop() {
	t.s.once.Do(func() {
		t.s.stopped.Store(true)
		close(t.s.done)
	})
}

// IsStopped reports whether Stop has been called.
func (t Token) IsStopped() bool {
	return t.s.stopped.Load()
}

// Flag returns the read half connected to this token.
func (t Token) Flag() Flag {
	return Flag{s: t.s}
}

// IsStopped reports whether Stop has been called on the connected token.
func (f Flag) IsStopped() bool {
	return f.s.stopped.Load()
}

// Done returns a channel that is closed once the signal is stopped.
func (f Flag) Done() <-chan struct{} {
	return f.s.done
}

// Wait blocks until the signal is stopped or ctx ends.
func (f Flag) Wait(ctx context.Context) error {
	select {
	case <-f.s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
