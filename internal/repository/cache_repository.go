package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

// CacheRepository stores JSON payloads in Redis under a common key prefix.
type CacheRepository struct {
	client *redis.Client
	prefix string
}

// NewCacheRepository constructs a cache repository. A nil client disables caching.
func NewCacheRepository(client *redis.Client, prefix string) *CacheRepository {
	return &CacheRepository{client: client, prefix: prefix}
}

func (r *CacheRepository) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

// Get retrieves and unmarshals the cached value into dest.
func (r *CacheRepository) Get(ctx context.Context, name string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	key := r.key(name)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := r.key(name)
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Delete removes the named entries.
func (r *CacheRepository) Delete(ctx context.Context, names ...string) error {
	if r.client == nil || len(names) == 0 {
		return nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.key(name)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %v: %w", keys, err)
	}
	return nil
}
