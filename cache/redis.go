package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // Default TTL for cache entries
	PoolSize int
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	addr := config.Host + ":" + strconv.Itoa(config.Port)
	if config.Port == 0 {
		addr = config.Host + ":6379" // Default Redis port
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewRedisCacheWithClient wraps an existing client. Used by tests and by
// callers that manage the connection themselves.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    30 * time.Minute,
	}
}

func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns redis.Nil when the key is entirely absent. An empty string
// result is a present value, which the cache-aside layer uses as the
// validated-absence sentinel.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *RedisCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// SetNX is an atomic set-if-absent with TTL.
func (c *RedisCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	return result > 0, err
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

// incrWithTTLScript increments and attaches the TTL in one round trip, so a
// counter can never be created without its expiry.
var incrWithTTLScript = redis.NewScript(`
local value = redis.call("incr", KEYS[1])
if value == 1 and tonumber(ARGV[1]) > 0 then
	redis.call("expire", KEYS[1], ARGV[1])
end
return value
`)

// IncrWithTTL atomically increments key, attaching ttl when the increment
// created the counter. The TTL keeps per-bucket sequence counters from
// accumulating forever.
func (c *RedisCache) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrWithTTLScript.Run(ctx, c.client, []string{key}, int64(ttl/time.Second)).Int64()
}
