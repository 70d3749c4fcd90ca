package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps records as plain string keys under a prefix.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

var _ Backend = (*RedisBackend)(nil)

// ConnectRedis initializes a client and verifies the connection with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisBackend(rdb, prefix), nil
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

// Put stores or replaces the record under key.
func (r *RedisBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the record under key or ErrNotFound.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return raw, nil
}

// Delete removes the record under key.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the client connection.
func (r *RedisBackend) Close() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
