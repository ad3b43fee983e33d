package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/malwarebo/dealhub/lock"
	"github.com/malwarebo/dealhub/utils"
	"github.com/redis/go-redis/v9"
)

// LockKeyPrefix namespaces rebuild locks away from the cache entries they
// guard, so a lock key can never be mistaken for a cached payload.
const LockKeyPrefix = "lock:"

// ErrLockUnavailable means the rebuild lock stayed held for the whole retry
// budget of a mutex-guarded fetch.
var ErrLockUnavailable = errors.New("cache: rebuild lock unavailable")

// LoaderFunc loads an entity from the authoritative store. A (nil, nil)
// return means the entity does not exist, which is cached as an explicit
// empty sentinel rather than treated as an error.
type LoaderFunc[T any] func(ctx context.Context, id int64) (*T, error)

type Options struct {
	// NullTTL bounds how long a validated absence is remembered.
	NullTTL time.Duration
	// LockTTL bounds a rebuild lock hold, crashed holders included.
	LockTTL time.Duration
	// LockRetries and LockBackoff bound the mutex-fetch wait loop.
	LockRetries int
	LockBackoff time.Duration
	// RebuildTimeout bounds a single background rebuild.
	RebuildTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.NullTTL == 0 {
		o.NullTTL = 2 * time.Minute
	}
	if o.LockTTL == 0 {
		o.LockTTL = 10 * time.Second
	}
	if o.LockRetries == 0 {
		o.LockRetries = 40
	}
	if o.LockBackoff == 0 {
		o.LockBackoff = 50 * time.Millisecond
	}
	if o.RebuildTimeout == 0 {
		o.RebuildTimeout = 10 * time.Second
	}
	return o
}

type Stats struct {
	Hits        int64
	Misses      int64
	NullHits    int64
	StaleServes int64
	Rebuilds    int64
}

// Client is the cache-aside engine. All strategies share the same physical
// key layout: entries under the caller's prefix, rebuild locks under
// LockKeyPrefix + the entry key.
type Client struct {
	store    *RedisCache
	locker   lock.Locker
	rebuilds *RebuildPool
	opts     Options
	logger   *utils.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	nullHits    atomic.Int64
	staleServes atomic.Int64
	rebuildRuns atomic.Int64
}

func NewClient(store *RedisCache, locker lock.Locker, rebuilds *RebuildPool, opts Options) *Client {
	return &Client{
		store:    store,
		locker:   locker,
		rebuilds: rebuilds,
		opts:     opts.withDefaults(),
		logger:   utils.NewLogger("cache"),
	}
}

// Key builds the cache key for an entity id under a prefix.
func Key(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.SetWithTTL(ctx, key, string(payload), ttl)
}

// envelope is the logically-expiring encoding: the entity plus an embedded
// expiry the readers consult. Stored with no physical TTL so it never
// silently disappears.
type envelope struct {
	Data     json.RawMessage `json:"data"`
	ExpireAt time.Time       `json:"expire_at"`
}

func (c *Client) SetWithLogicalExpire(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope{
		Data:     data,
		ExpireAt: time.Now().Add(ttl),
	})
	if err != nil {
		return err
	}
	return c.store.SetWithTTL(ctx, key, string(payload), 0)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

func (c *Client) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		NullHits:    c.nullHits.Load(),
		StaleServes: c.staleServes.Load(),
		Rebuilds:    c.rebuildRuns.Load(),
	}
}

func (c *Client) HitRate() float64 {
	hits := c.hits.Load() + c.nullHits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// FetchThrough is the pass-through strategy with null caching: a miss loads
// from the authoritative store, and a confirmed absence is written back as an
// empty sentinel so repeated lookups of a nonexistent id stop at the cache.
func FetchThrough[T any](ctx context.Context, c *Client, prefix string, id int64, ttl time.Duration, load LoaderFunc[T]) (*T, error) {
	key := Key(prefix, id)

	entity, found, err := lookup[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if found {
		return entity, nil
	}

	return loadAndFill(ctx, c, key, id, ttl, load)
}

// FetchWithMutex guards the rebuild with the distributed lock so a hot key
// that just expired is reloaded exactly once. Contending fetchers sleep and
// retry the whole read, bounded by Options.LockRetries; staleness is never
// served on this path.
func FetchWithMutex[T any](ctx context.Context, c *Client, prefix string, id int64, ttl time.Duration, load LoaderFunc[T]) (*T, error) {
	key := Key(prefix, id)
	lockKey := LockKeyPrefix + key

	for attempt := 0; ; attempt++ {
		entity, found, err := lookup[T](ctx, c, key)
		if err != nil {
			return nil, err
		}
		if found {
			return entity, nil
		}

		owner, err := c.locker.TryLock(ctx, lockKey, c.opts.LockTTL)
		if err != nil {
			return nil, err
		}
		if owner == "" {
			if attempt >= c.opts.LockRetries {
				return nil, ErrLockUnavailable
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.opts.LockBackoff):
			}
			continue
		}

		return rebuildLocked(ctx, c, key, lockKey, owner, id, ttl, load)
	}
}

// FetchWithLogicalExpire never blocks a reader. An absent key is a not-found
// (this path does not null-cache; hot entries are pre-warmed with
// SetWithLogicalExpire). An expired entry is served stale while one caller
// hands the reload to the background pool under the rebuild lock.
func FetchWithLogicalExpire[T any](ctx context.Context, c *Client, prefix string, id int64, ttl time.Duration, load LoaderFunc[T]) (*T, error) {
	key := Key(prefix, id)

	payload, err := c.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entity, expireAt, err := decodeEnvelope[T](payload)
	if err != nil {
		return nil, err
	}
	if time.Now().Before(expireAt) {
		c.hits.Add(1)
		return entity, nil
	}

	c.staleServes.Add(1)

	lockKey := LockKeyPrefix + key
	owner, lockErr := c.locker.TryLock(ctx, lockKey, c.opts.LockTTL)
	if lockErr != nil {
		c.logger.Warn(ctx, "rebuild lock attempt failed, serving stale entry", map[string]interface{}{
			"key":   key,
			"error": lockErr.Error(),
		})
		return entity, nil
	}

	if owner != "" {
		// Re-validate under the lock: the previous holder may have already
		// refreshed the entry.
		if fresh, ok := freshEntity[T](ctx, c, key); ok {
			c.unlock(ctx, lockKey, owner)
			return fresh, nil
		}

		submitted := c.rebuilds.Submit(func() {
			rctx, cancel := context.WithTimeout(context.Background(), c.opts.RebuildTimeout)
			defer cancel()
			defer c.unlock(rctx, lockKey, owner)

			c.rebuildRuns.Add(1)

			fresh, loadErr := load(rctx, id)
			if loadErr != nil {
				c.logger.Error(rctx, "background cache rebuild failed", map[string]interface{}{
					"key":   key,
					"error": loadErr.Error(),
				})
				return
			}
			if fresh == nil {
				// The backing row is gone; drop the entry rather than
				// refreshing a deleted entity.
				if dErr := c.store.Delete(rctx, key); dErr != nil {
					c.logger.Warn(rctx, "failed to drop cache entry for deleted entity", map[string]interface{}{
						"key":   key,
						"error": dErr.Error(),
					})
				}
				return
			}
			if sErr := c.SetWithLogicalExpire(rctx, key, fresh, ttl); sErr != nil {
				c.logger.Error(rctx, "failed to write rebuilt cache entry", map[string]interface{}{
					"key":   key,
					"error": sErr.Error(),
				})
			}
		})
		if !submitted {
			c.unlock(ctx, lockKey, owner)
			c.logger.Warn(ctx, "rebuild queue full, serving stale entry", map[string]interface{}{"key": key})
		}
	}

	return entity, nil
}

// lookup reads a plain entry. found=true with a nil entity is a hit on the
// empty sentinel: the absence was already validated against the store.
func lookup[T any](ctx context.Context, c *Client, key string) (*T, bool, error) {
	payload, err := c.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if payload == "" {
		c.nullHits.Add(1)
		return nil, true, nil
	}

	var entity T
	if err := json.Unmarshal([]byte(payload), &entity); err != nil {
		return nil, false, err
	}
	c.hits.Add(1)
	return &entity, true, nil
}

// loadAndFill queries the authoritative store on a true miss and writes back
// either the entity or the empty sentinel.
func loadAndFill[T any](ctx context.Context, c *Client, key string, id int64, ttl time.Duration, load LoaderFunc[T]) (*T, error) {
	loaded, err := load(ctx, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		if sErr := c.store.SetWithTTL(ctx, key, "", c.opts.NullTTL); sErr != nil {
			c.logger.Warn(ctx, "failed to cache empty sentinel", map[string]interface{}{
				"key":   key,
				"error": sErr.Error(),
			})
		}
		return nil, nil
	}
	if sErr := c.Set(ctx, key, loaded, ttl); sErr != nil {
		c.logger.Warn(ctx, "failed to write cache entry", map[string]interface{}{
			"key":   key,
			"error": sErr.Error(),
		})
	}
	return loaded, nil
}

// rebuildLocked reloads key from the authoritative store while holding
// lockKey, releasing the lock on every exit path.
func rebuildLocked[T any](ctx context.Context, c *Client, key, lockKey, lockOwner string, id int64, ttl time.Duration, load LoaderFunc[T]) (*T, error) {
	defer c.unlock(ctx, lockKey, lockOwner)

	// Another holder may have repopulated the key while we waited for the
	// lock; re-check before touching the store.
	entity, found, err := lookup[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if found {
		return entity, nil
	}

	c.rebuildRuns.Add(1)

	loaded, err := load(ctx, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		if sErr := c.store.SetWithTTL(ctx, key, "", c.opts.NullTTL); sErr != nil {
			c.logger.Warn(ctx, "failed to cache empty sentinel", map[string]interface{}{
				"key":   key,
				"error": sErr.Error(),
			})
		}
		return nil, nil
	}
	if sErr := c.Set(ctx, key, loaded, ttl); sErr != nil {
		c.logger.Warn(ctx, "failed to write rebuilt cache entry", map[string]interface{}{
			"key":   key,
			"error": sErr.Error(),
		})
	}
	return loaded, nil
}

func decodeEnvelope[T any](payload string) (*T, time.Time, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, time.Time{}, err
	}
	var entity T
	if err := json.Unmarshal(env.Data, &entity); err != nil {
		return nil, time.Time{}, err
	}
	return &entity, env.ExpireAt, nil
}

// freshEntity reports whether key currently holds an unexpired envelope.
func freshEntity[T any](ctx context.Context, c *Client, key string) (*T, bool) {
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	entity, expireAt, err := decodeEnvelope[T](payload)
	if err != nil {
		return nil, false
	}
	if time.Now().Before(expireAt) {
		return entity, true
	}
	return nil, false
}

func (c *Client) unlock(ctx context.Context, lockKey, owner string) {
	if err := c.locker.Unlock(ctx, lockKey, owner); err != nil && !errors.Is(err, lock.ErrNotAcquired) {
		c.logger.Warn(ctx, "failed to release rebuild lock", map[string]interface{}{
			"key":   lockKey,
			"error": err.Error(),
		})
	}
}
