package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "rbac:role:"

// Cache stores a role's granted permission names in Redis, keyed by role name.
// Each value is written with a single SET so readers never observe a partially
// updated set. Transient transport errors are retried a bounded number of
// times before surfacing.
type Cache struct {
	client   *redis.Client
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

// NewCache instantiates the permission cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client:   client,
		ttl:      ttl,
		attempts: 3,
		backoff:  50 * time.Millisecond,
	}
}

func cacheKey(roleName string) string {
	return cacheKeyPrefix + roleName
}

// Get returns the cached permission names for a role. ok is false on a miss,
// which is an expected steady state and not an error.
func (c *Cache) Get(ctx context.Context, roleName string) (names []string, ok bool, err error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	var payload []byte
	err = c.withRetry(ctx, func() error {
		var getErr error
		payload, getErr = c.client.Get(ctx, cacheKey(roleName)).Bytes()
		return getErr
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rbac: cache get %q: %w", roleName, err)
	}
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, false, fmt.Errorf("rbac: cache decode %q: %w", roleName, err)
	}
	return names, true, nil
}

// Set overwrites the cached permission set for a role.
func (c *Cache) Set(ctx context.Context, roleName string, names []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if names == nil {
		names = []string{}
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("rbac: cache encode %q: %w", roleName, err)
	}
	err = c.withRetry(ctx, func() error {
		return c.client.Set(ctx, cacheKey(roleName), payload, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("rbac: cache set %q: %w", roleName, err)
	}
	return nil
}

// Invalidate drops a role's entry, forcing the next read to repopulate from
// the store.
func (c *Cache) Invalidate(ctx context.Context, roleName string) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.withRetry(ctx, func() error {
		return c.client.Del(ctx, cacheKey(roleName)).Err()
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("rbac: cache invalidate %q: %w", roleName, err)
	}
	return nil
}

// RemovePermission strips a permission name from a role's cached set. When the
// read-modify-write cannot complete the entry is invalidated instead: a stale
// permissive entry is the one state this cache must never hold.
func (c *Cache) RemovePermission(ctx context.Context, roleName, permission string) error {
	if c == nil || c.client == nil {
		return nil
	}
	names, ok, err := c.Get(ctx, roleName)
	if err != nil {
		return c.Invalidate(ctx, roleName)
	}
	if !ok {
		// Absent entry already satisfies the no-stale-grant guarantee.
		return nil
	}
	filtered := names[:0]
	for _, name := range names {
		if name != permission {
			filtered = append(filtered, name)
		}
	}
	if err := c.Set(ctx, roleName, filtered); err != nil {
		return c.Invalidate(ctx, roleName)
	}
	return nil
}

// withRetry runs op up to c.attempts times with doubling backoff. A redis.Nil
// result is a miss, not a failure, and returns immediately.
func (c *Cache) withRetry(ctx context.Context, op func() error) error {
	var err error
	delay := c.backoff
	for attempt := 0; attempt < c.attempts; attempt++ {
		err = op()
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
