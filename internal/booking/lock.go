package booking

import (
	"context"
	"sync"
)

// Locker serializes reservations per class. Acquire blocks until the key
// is free or ctx is done; in the latter case it returns ctx.Err().
// The returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LockRegistry is an in-process Locker. Each key gets a one-slot channel
// that lives only while someone holds or waits on it.
type LockRegistry struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{slots: make(map[string]*lockSlot)}
}

func (r *LockRegistry) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	slot, ok := r.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		r.slots[key] = slot
	}
	slot.refs++
	r.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				r.unref(key, slot)
			})
		}, nil
	case <-ctx.Done():
		r.unref(key, slot)
		return nil, ctx.Err()
	}
}

func (r *LockRegistry) unref(key string, slot *lockSlot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(r.slots, key)
	}
}

// Len returns the number of keys currently held or waited on.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
