package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hienohelma/storefront/internal/domain"
)

const storeConfigKey = "storeconfig"

// StoreConfigCache implements repository.StoreConfigCache using Redis.
type StoreConfigCache struct {
	client redis.UniversalClient
}

// NewStoreConfigCache creates a Redis-backed store configuration cache.
func NewStoreConfigCache(client redis.UniversalClient) *StoreConfigCache {
	return &StoreConfigCache{client: client}
}

// Get returns the cached store configuration, or nil on a miss.
func (c *StoreConfigCache) Get(ctx context.Context) (*domain.StoreConfig, error) {
	data, err := c.client.Get(ctx, storeConfigKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get store config: %w", err)
	}

	var cfg domain.StoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal store config: %w", err)
	}
	return &cfg, nil
}

// Set caches the store configuration.
func (c *StoreConfigCache) Set(ctx context.Context, cfg *domain.StoreConfig, ttl time.Duration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal store config: %w", err)
	}
	if err := c.client.Set(ctx, storeConfigKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set store config: %w", err)
	}
	return nil
}

// Invalidate removes the cached store configuration.
func (c *StoreConfigCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, storeConfigKey).Err(); err != nil {
		return fmt.Errorf("redis del store config: %w", err)
	}
	return nil
}
