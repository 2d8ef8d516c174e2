package redisclient

import (
	"context"
	"sync"
)

type dayMutex struct {
	mu      sync.Mutex
	holders int
}

type localDayLocker struct {
	mu    sync.Mutex
	locks map[string]*dayMutex
}

// NewLocalDayLocker serialises bookings inside a single process. It is used
// when the service runs without Redis.
func NewLocalDayLocker() Locker {
	return &localDayLocker{locks: make(map[string]*dayMutex)}
}

func (l *localDayLocker) WithDayLock(ctx context.Context, masterID int64, day string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := DayLockKey(masterID, day)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &dayMutex{}
		l.locks[key] = m
	}
	m.holders++
	l.mu.Unlock()

	m.mu.Lock()
	defer func() {
		m.mu.Unlock()

		l.mu.Lock()
		m.holders--
		if m.holders == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}()

	return fn(ctx)
}
