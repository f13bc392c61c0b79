package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"classbook/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockPrefix   = "classbook:lock:class:"
	defaultPollInterval = 5 * time.Millisecond
	maxPollInterval     = 50 * time.Millisecond
	releaseTimeout      = 2 * time.Second
)

// Deletes the key only if we still own it, so a holder whose TTL ran out
// cannot release somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every replica that talks to the same
// Redis. Keys expire after ttl so a crashed holder cannot wedge a class.
type RedisLocker struct {
	client   redis.UniversalClient
	ttl      time.Duration
	prefix   string
	poll     time.Duration
	newToken func() string
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		prefix:   defaultLockPrefix,
		poll:     defaultPollInterval,
		newToken: uuid.NewString,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := l.newToken()
	wait := l.poll

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// The SET may have landed before the reply was lost.
				l.releaser(lockKey, token)()
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire redis lock %s: %w", lockKey, err)
		}
		if ok {
			return l.releaser(lockKey, token), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		wait *= 2
		if wait > maxPollInterval {
			wait = maxPollInterval
		}
	}
}

func (l *RedisLocker) releaser(lockKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
				logger.Error("Failed to release class lock", "key", lockKey, "error", err)
			}
		})
	}
}
