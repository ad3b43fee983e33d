package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisCacheWithClient(rdb), mr
}

func TestIncrWithTTLAttachesExpiryOnCreation(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	n, err := store.IncrWithTTL(ctx, "icr:order:2026:08:28", time.Hour)
	if err != nil {
		t.Fatalf("IncrWithTTL() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("IncrWithTTL() = %d, want 1", n)
	}
	// The increment that creates the counter must never leave it without a
	// TTL: both happen in one script.
	if ttl := mr.TTL("icr:order:2026:08:28"); ttl <= 0 {
		t.Fatalf("counter has no TTL, got %v", ttl)
	}

	n, err = store.IncrWithTTL(ctx, "icr:order:2026:08:28", time.Hour)
	if err != nil {
		t.Fatalf("IncrWithTTL() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("IncrWithTTL() = %d, want 2", n)
	}
	if ttl := mr.TTL("icr:order:2026:08:28"); ttl <= 0 {
		t.Fatalf("TTL dropped by a later increment, got %v", ttl)
	}
}

func TestIncrWithTTLExpiredCounterRestarts(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, err := store.IncrWithTTL(ctx, "icr:order:day", time.Minute); err != nil {
		t.Fatalf("IncrWithTTL() error = %v", err)
	}
	mr.FastForward(2 * time.Minute)

	n, err := store.IncrWithTTL(ctx, "icr:order:day", time.Minute)
	if err != nil {
		t.Fatalf("IncrWithTTL() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("expired counter resumed at %d, want 1", n)
	}
	if ttl := mr.TTL("icr:order:day"); ttl <= 0 {
		t.Fatalf("recreated counter has no TTL, got %v", ttl)
	}
}
