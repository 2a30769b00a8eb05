package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores entries as JSON under a key prefix.
// Retention bounds how long a stale entry survives in Redis and should be
// well above the SWR ttl so stale values remain servable.
type RedisBackend[T any] struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisBackend creates a Redis second tier.
func NewRedisBackend[T any](client *redis.Client, prefix string, retention time.Duration) *RedisBackend[T] {
	return &RedisBackend[T]{client: client, prefix: prefix, retention: retention}
}

// NewRedisClient connects to Redis at addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get loads and decodes an entry. A missing key returns found=false.
func (r *RedisBackend[T]) Get(ctx context.Context, key string) (Entry[T], bool, error) {
	var e Entry[T]

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, &e); err != nil {
		return e, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e, true, nil
}

// Set encodes and stores an entry with the configured retention.
func (r *RedisBackend[T]) Set(ctx context.Context, key string, e Entry[T]) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

var _ Backend[int] = (*RedisBackend[int])(nil)
