package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/pkg/logger"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON encoded values under string keys. Get decodes into dest and
// returns ErrCacheMiss when the key is absent or expired.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

type RedisCache struct {
	client *redis.Client
	logger logger.Logger
	prefix string
}

func NewRedisCache(client *redis.Client, logger logger.Logger, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (r *RedisCache) makeKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := r.makeKey(key)
	data, err := r.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Cache get failed", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", fullKey, err)
	}
	return nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}

	fullKey := r.makeKey(key)
	if err := r.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Cache set failed", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.makeKey(key)
	}

	if err := r.client.Del(ctx, fullKeys...).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Cache delete failed", map[string]interface{}{
			"keys":  fullKeys,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type nopCache struct{}

// Nop returns a Cache that stores nothing. Every Get misses.
func Nop() Cache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string, interface{}) error {
	return ErrCacheMiss
}

func (nopCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (nopCache) Delete(context.Context, ...string) error {
	return nil
}

func (nopCache) Ping(context.Context) error {
	return nil
}
