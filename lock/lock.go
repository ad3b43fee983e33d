// Package lock provides a store-backed distributed lock. The enforcement
// domain is the whole deployment: any process observing the same resource key
// sees the same holder, which is what the seckill per-user gate and the cache
// rebuild paths require.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by helpers when the lock is held elsewhere.
var ErrNotAcquired = errors.New("lock: not acquired")

type Locker interface {
	// TryLock attempts an atomic set-if-absent on key with the given ttl.
	// On success it returns the owner token the caller must present to
	// Unlock; an empty token means the lock is held elsewhere. The token
	// travels with the acquiring caller, so two goroutines contending for
	// the same key can never release each other's hold. A store fault
	// never counts as an acquisition.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Unlock releases key if owner still holds it. A lock that expired and
	// was re-acquired by someone else is left in place and reported as
	// ErrNotAcquired.
	Unlock(ctx context.Context, key, owner string) error
}

// WithLock runs fn while holding key, releasing it on every exit path.
// It returns ErrNotAcquired without running fn when the lock is held
// elsewhere.
func WithLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func() error) error {
	owner, err := locker.TryLock(ctx, key, ttl)
	if err != nil {
		return err
	}
	if owner == "" {
		return ErrNotAcquired
	}
	defer locker.Unlock(ctx, key, owner)

	return fn()
}
