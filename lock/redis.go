package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while the caller's owner marker is still
// in place, so a lock that expired and was re-acquired elsewhere is never
// released by a slow previous holder.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is stateless: the owner marker returned by TryLock is the only
// proof of ownership, so any number of goroutines can share one instance
// without a stale holder ever matching a re-acquired lock's marker.
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return owner, nil
}

func (l *RedisLock) Unlock(ctx context.Context, key, owner string) error {
	if owner == "" {
		return ErrNotAcquired
	}

	deleted, err := unlockScript.Run(ctx, l.client, []string{key}, owner).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotAcquired
	}
	return nil
}
