package rbac

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheMissIsNotAnError(t *testing.T) {
	cache, _ := newTestCache(t)

	names, ok, err := cache.Get(context.Background(), "client")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent entry")
	}
	if names != nil {
		t.Fatalf("expected nil names on miss, got %v", names)
	}
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "client", []string{"users.view", "users.list"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	names, ok, err := cache.Get(ctx, "client")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if len(names) != 2 || names[0] != "users.view" || names[1] != "users.list" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestCacheSetEmptySetIsAHit(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "client", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	names, ok, err := cache.Get(ctx, "client")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("an empty permission set must still be a cache hit")
	}
	if len(names) != 0 {
		t.Fatalf("expected empty set, got %v", names)
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "client", []string{"users.view"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.Invalidate(ctx, "client"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, ok, err := cache.Get(ctx, "client")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestCacheRemovePermission(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "client", []string{"users.view", "users.delete"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := cache.RemovePermission(ctx, "client", "users.delete"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	names, ok, err := cache.Get(ctx, "client")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("entry should survive a removal")
	}
	if len(names) != 1 || names[0] != "users.view" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestCacheRemovePermissionAbsentEntry(t *testing.T) {
	cache, _ := newTestCache(t)

	if err := cache.RemovePermission(context.Background(), "client", "users.delete"); err != nil {
		t.Fatalf("removal from absent entry must be a no-op, got %v", err)
	}
}

func TestCacheRemovePermissionFailClosed(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	// A corrupt entry cannot be rewritten safely; removal must fall back to
	// dropping the key entirely.
	mr.Set(cacheKey("client"), "not-json")
	if err := cache.RemovePermission(ctx, "client", "users.delete"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mr.Exists(cacheKey("client")) {
		t.Fatal("expected corrupt entry to be invalidated")
	}
}
