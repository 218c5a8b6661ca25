package stop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStop_ObservedByAllCopies(t *testing.T) {
	token, flag := New()
	tokenCopy := token
	flagCopy := flag
	derived := token.Flag()

	assert.False(t, flag.IsStopped())
	assert.False(t, tokenCopy.IsStopped())

	tokenCopy.Stop()

	assert.True(t, token.IsStopped())
	assert.True(t, flag.IsStopped())
	assert.True(t, flagCopy.IsStopped())
	assert.True(t, derived.IsStopped())
}

func TestStop_Idempotent(t *testing.T) {
	token, flag := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token.Stop()
		}()
	}
	wg.Wait()
	token.Stop()

	select {
	case <-flag.Done():
	default:
		t.Fatal("done channel not closed after Stop")
	}
	assert.True(t, flag.IsStopped())
}

func TestFlag_DoneWakesWaiters(t *testing.T) {
	token, flag := New()

	woke := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			<-flag.Done()
			woke <- struct{}{}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	token.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-woke:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d not woken", i)
		}
	}
}

func TestFlag_Wait(t *testing.T) {
	t.Run("returns nil after stop", func(t *testing.T) {
		token, flag := New()
		go token.Stop()
		require.NoError(t, flag.Wait(context.Background()))
	})

	t.Run("returns context error", func(t *testing.T) {
		_, flag := New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, flag.Wait(ctx), context.DeadlineExceeded)
		assert.False(t, flag.IsStopped())
	})
}
