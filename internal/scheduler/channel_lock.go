package scheduler

import (
	"context"
	"sync"
)

// ChannelLock serializes critical sections per channel id.
// Sections for different ids run concurrently.
type ChannelLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	sem  chan struct{}
	refs int
}

// NewChannelLock creates an empty keyed lock
func NewChannelLock() *ChannelLock {
	return &ChannelLock{slots: make(map[string]*lockSlot)}
}

// Do runs fn while holding the lock for key. The lock is released when fn
// returns or panics. Waiting for the lock is abandoned when ctx is done.
func (l *ChannelLock) Do(ctx context.Context, key string, fn func() error) error {
	slot := l.acquire(key)
	defer l.release(key, slot)

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-slot.sem }()

	return fn()
}

// Held returns the number of keys with a holder or waiter
func (l *ChannelLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *ChannelLock) acquire(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *ChannelLock) release(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
