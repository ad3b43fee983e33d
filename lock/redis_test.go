package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisLock(client), mr
}

func TestRedisLock_Exclusive(t *testing.T) {
	locker, _ := newTestLock(t)
	ctx := context.Background()

	owner, err := locker.TryLock(ctx, "lock:test", 10*time.Second)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if owner == "" {
		t.Fatal("TryLock() = empty owner, want a token")
	}

	second, err := locker.TryLock(ctx, "lock:test", 10*time.Second)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if second != "" {
		t.Error("second TryLock() acquired a held lock")
	}
}

func TestRedisLock_UnlockAllowsReacquire(t *testing.T) {
	locker, _ := newTestLock(t)
	ctx := context.Background()

	owner, _ := locker.TryLock(ctx, "lock:test", 10*time.Second)
	if owner == "" {
		t.Fatal("TryLock() = empty owner, want a token")
	}
	if err := locker.Unlock(ctx, "lock:test", owner); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	owner, err := locker.TryLock(ctx, "lock:test", 10*time.Second)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if owner == "" {
		t.Error("TryLock() after Unlock() = empty owner, want a token")
	}
}

// A holder whose TTL lapsed must not be able to release the lock after
// another goroutine re-acquires the same key through the same instance.
func TestRedisLock_StaleHolderAfterReacquire(t *testing.T) {
	locker, mr := newTestLock(t)
	ctx := context.Background()

	stale, _ := locker.TryLock(ctx, "lock:order:user:1", time.Second)
	if stale == "" {
		t.Fatal("TryLock() = empty owner, want a token")
	}

	mr.FastForward(2 * time.Second)

	fresh, err := locker.TryLock(ctx, "lock:order:user:1", 10*time.Second)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if fresh == "" {
		t.Fatal("TryLock() after TTL expiry = empty owner, want a token")
	}

	if err := locker.Unlock(ctx, "lock:order:user:1", stale); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("stale Unlock() error = %v, want ErrNotAcquired", err)
	}
	if !mr.Exists("lock:order:user:1") {
		t.Fatal("stale Unlock() removed the new holder's lock")
	}

	// The live holder's token still releases it.
	if err := locker.Unlock(ctx, "lock:order:user:1", fresh); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if mr.Exists("lock:order:user:1") {
		t.Error("lock still present after the live holder's Unlock()")
	}
}

func TestRedisLock_UnlockWithoutHold(t *testing.T) {
	locker, _ := newTestLock(t)

	if err := locker.Unlock(context.Background(), "lock:test", "never-issued"); !errors.Is(err, ErrNotAcquired) {
		t.Errorf("Unlock() error = %v, want ErrNotAcquired", err)
	}
}

func TestWithLock(t *testing.T) {
	locker, _ := newTestLock(t)
	ctx := context.Background()

	ran := false
	err := WithLock(ctx, locker, "lock:test", 10*time.Second, func() error {
		ran = true

		if owner, _ := locker.TryLock(ctx, "lock:test", 10*time.Second); owner != "" {
			t.Error("lock acquired while WithLock body was running")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock() error = %v", err)
	}
	if !ran {
		t.Fatal("WithLock() did not run fn")
	}

	owner, _ := locker.TryLock(ctx, "lock:test", 10*time.Second)
	if owner == "" {
		t.Error("lock not released after WithLock")
	}
}
