package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("master day lock not acquired")
)

const retryInterval = 25 * time.Millisecond

// Locker is used by the booking service to serialise check-then-insert for
// one master on one day.
type Locker interface {
	WithDayLock(ctx context.Context, masterID int64, day string, fn func(ctx context.Context) error) error
}

// DayLockKey is the key guarding a master's day.
func DayLockKey(masterID int64, day string) string {
	return fmt.Sprintf("lock:master:%d:day:%s", masterID, day)
}

type redisDayLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisDayLocker creates a locker that uses a per master/day Redis key.
// A held lock is retried for up to wait before ErrLockNotAcquired.
func NewRedisDayLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *redisDayLocker) WithDayLock(ctx context.Context, masterID int64, day string, fn func(ctx context.Context) error) error {
	key := DayLockKey(masterID, day)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// release even if the caller's context is already done
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = l.release(relCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisDayLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire day lock: %w", err)
		}
		if ok {
			return nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release day lock: %w", err)
	}
	return nil
}
