package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_AcquireAndDeny(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	allowed, _, err := store.Acquire(ctx, "fp-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected first acquire to succeed")
	}

	allowed, retryAfter, err := store.Acquire(ctx, "fp-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected duplicate acquire to be denied")
	}
	if retryAfter <= 0 || retryAfter > 10*time.Second {
		t.Fatalf("expected retryAfter in (0, 10s], got %v", retryAfter)
	}
}

func TestRedisStore_ExpiryAllowsReacquire(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if allowed, _, _ := store.Acquire(ctx, "fp-1", 10*time.Second); !allowed {
		t.Fatalf("expected first acquire to succeed")
	}

	mr.FastForward(11 * time.Second)

	allowed, _, err := store.Acquire(ctx, "fp-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected acquire after TTL expiry to succeed")
	}
}

func TestRedisStore_DeleteAndLen(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	store.Acquire(ctx, "fp-1", time.Minute)
	store.Acquire(ctx, "fp-2", time.Minute)

	size, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 2 {
		t.Fatalf("expected 2 entries, got %d", size)
	}

	if err := store.Delete(ctx, "fp-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	size, _ = store.Len(ctx)
	if size != 1 {
		t.Fatalf("expected 1 entry after delete, got %d", size)
	}
}
