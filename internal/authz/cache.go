package authz

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a resolved PermissionSet may be served
// without consulting the store. It is also the worst-case staleness window
// for a revocation that raced an in-flight request.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "authz:pset:"

// Cache stores resolved permission sets in Redis keyed by principal id.
// Entries expire via Redis TTL; explicit invalidation removes them early.
// A nil client degrades every read to a miss so the engine keeps working
// against the store alone.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// TTL exposes the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Get returns the cached set for the principal and whether it was present.
func (c *Cache) Get(ctx context.Context, principalID int64) (PermissionSet, bool, error) {
	if c == nil || c.client == nil {
		return PermissionSet{}, false, nil
	}
	payload, err := c.client.Get(ctx, cacheKey(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return PermissionSet{}, false, nil
		}
		return PermissionSet{}, false, err
	}
	var set PermissionSet
	if err := json.Unmarshal(payload, &set); err != nil {
		// Corrupt entry: drop it and report a miss.
		_ = c.client.Del(ctx, cacheKey(principalID)).Err()
		return PermissionSet{}, false, err
	}
	return set, true, nil
}

// Set writes the resolved set with the configured TTL.
func (c *Cache) Set(ctx context.Context, set PermissionSet) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(set.PrincipalID), payload, c.ttl).Err()
}

// Invalidate removes the principal's entry.
func (c *Cache) Invalidate(ctx context.Context, principalID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(principalID)).Err()
}

// Clear flushes every cached permission set. Administrative use only, for
// example after reseeding role-permission edges.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func cacheKey(principalID int64) string {
	return cacheKeyPrefix + strconv.FormatInt(principalID, 10)
}
