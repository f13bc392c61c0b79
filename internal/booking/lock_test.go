package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistry_SerializesSameKey(t *testing.T) {
	locks := NewLockRegistry()

	var (
		wg      sync.WaitGroup
		inside  int32
		overlap int32
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "class-1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(100 * time.Microsecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlap))
	assert.Zero(t, locks.Len(), "idle keys must be dropped")
}

func TestLockRegistry_IndependentKeys(t *testing.T) {
	locks := NewLockRegistry()

	r1, err := locks.Acquire(context.Background(), "class-1")
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r2, err := locks.Acquire(ctx, "class-2")
	require.NoError(t, err)
	r2()
}

func TestLockRegistry_TimeoutWhileHeld(t *testing.T) {
	locks := NewLockRegistry()

	release, err := locks.Acquire(context.Background(), "class-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Acquire(ctx, "class-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Zero(t, locks.Len())

	again, err := locks.Acquire(context.Background(), "class-1")
	require.NoError(t, err)
	again()
}

func TestLockRegistry_CancelledContext(t *testing.T) {
	locks := NewLockRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locks.Acquire(ctx, "class-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, locks.Len())
}

func TestLockRegistry_DoubleReleaseIsNoop(t *testing.T) {
	locks := NewLockRegistry()

	release, err := locks.Acquire(context.Background(), "class-1")
	require.NoError(t, err)
	release()
	release()

	held, err := locks.Acquire(context.Background(), "class-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Acquire(ctx, "class-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a stale release must not unlock the current holder")
	held()
}
