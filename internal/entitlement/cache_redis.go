package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	paymodels "phasegarden/internal/payment/models"
)

const (
	entitlementKeyPrefix = "entitlement:"

	// DefaultCacheTTL bounds how long a Sent entitlement is served from Redis.
	DefaultCacheTTL = 24 * time.Hour
)

// RedisCache stores Sent entitlements as JSON under entitlement:{provider}:{id}.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache using client. A non-positive ttl uses
// DefaultCacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key paymodels.Key) (*Entitlement, error) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get entitlement: %w", err)
	}
	var e Entitlement
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode cached entitlement: %w", err)
	}
	e.Key = key
	return &e, nil
}

func (c *RedisCache) Set(ctx context.Context, e *Entitlement) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entitlement: %w", err)
	}
	return c.client.Set(ctx, cacheKey(e.Key), raw, c.ttl).Err()
}

func cacheKey(key paymodels.Key) string {
	return entitlementKeyPrefix + key.String()
}
