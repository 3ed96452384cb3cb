package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as Redis strings with a native TTL
type RedisBackend struct {
	client *redis.Client
	prefix string
	now    Clock
}

// NewRedisBackend creates a backend on client. Every key is namespaced with
// prefix.
func NewRedisBackend(client *redis.Client, prefix string, clock Clock) *RedisBackend {
	if clock == nil {
		clock = time.Now
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		now:    clock,
	}
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (b *RedisBackend) key(key string) string {
	return b.prefix + key
}

// Get returns the live entry for key
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, b.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value with a TTL reaching expiresAt. An expiry already in the
// past removes the key instead.
func (b *RedisBackend) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(b.now())
		if ttl <= 0 {
			return b.Delete(ctx, key)
		}
	}
	if err := b.client.Set(ctx, b.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = b.key(key)
	}
	if err := b.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}
