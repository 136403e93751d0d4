package cache

import (
	"context"

	"github.com/Ramsey-B/myndigheter/pkg/redis"
)

// RedisBackend stores values in Redis. Keys never expire on the server; the
// Store decides freshness from the envelope timestamp.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps a connected Redis client
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Name() string { return BackendRedis }

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, key)
	if redis.IsNil(err) {
		return nil, ErrNotFound
	}
	return v, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, key, value, 0)
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, key)
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
