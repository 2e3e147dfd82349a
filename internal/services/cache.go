package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix  = "mindnest:cache:"
	DefaultCacheTTL = 8 * time.Hour
	MinCacheTTL     = time.Minute
	MaxCacheTTL     = 12 * time.Hour
)

// CacheService is a JSON cache over Redis. A nil *CacheService is valid and always misses.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService returns a cache whose entries live for ttl, clamped to [MinCacheTTL, MaxCacheTTL].
func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl < MinCacheTTL {
		ttl = MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}
	return &CacheService{client: client, ttl: ttl}
}

// Get retrieves a value from cache. A miss is (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, jsonData, c.ttl).Err()
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, CacheKeyPrefix+key).Err()
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}
