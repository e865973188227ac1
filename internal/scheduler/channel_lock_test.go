package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelLock_SerializesSameKey(t *testing.T) {
	lock := NewChannelLock()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lock.Do(context.Background(), "channel", func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, lock.Held())
}

func TestChannelLock_DifferentKeysRunConcurrently(t *testing.T) {
	lock := NewChannelLock()

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = lock.Do(context.Background(), "a", func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = lock.Do(context.Background(), "b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked by holder of a")
	}
	close(release)
}

func TestChannelLock_ReturnsFnError(t *testing.T) {
	lock := NewChannelLock()
	boom := errors.New("boom")

	err := lock.Do(context.Background(), "a", func() error { return boom })
	assert.ErrorIs(t, err, boom)

	// Released after error
	err = lock.Do(context.Background(), "a", func() error { return nil })
	assert.NoError(t, err)
}

func TestChannelLock_ReleasesOnPanic(t *testing.T) {
	lock := NewChannelLock()

	assert.Panics(t, func() {
		_ = lock.Do(context.Background(), "a", func() error { panic("boom") })
	})
	assert.Equal(t, 0, lock.Held())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, lock.Do(ctx, "a", func() error { return nil }))
}

func TestChannelLock_WaitHonoursContext(t *testing.T) {
	lock := NewChannelLock()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = lock.Do(context.Background(), "a", func() error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := lock.Do(ctx, "a", func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	close(release)
}
