package guard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "guard:fp:"

// RedisStore backs the guard with a shared Redis instance so duplicate
// suppression holds across horizontally scaled processes. Entries expire via
// Redis TTLs, so Sweep and the capacity bound are handled server-side.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Acquire implements Store. SET NX with the window as TTL makes the
// read-check-write cycle a single atomic operation, so two concurrent
// identical calls cannot both be allowed.
func (s *RedisStore) Acquire(ctx context.Context, fingerprint string, window time.Duration) (bool, time.Duration, error) {
	key := redisKeyPrefix + fingerprint

	set, err := s.client.SetNX(ctx, key, time.Now().UnixMilli(), window).Result()
	if err != nil {
		return false, 0, err
	}
	if set {
		return true, 0, nil
	}

	remaining, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if remaining < 0 {
		// Entry vanished between SETNX and PTTL; treat as expired.
		remaining = 0
	}
	return false, remaining, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, fingerprint string) error {
	return s.client.Del(ctx, redisKeyPrefix+fingerprint).Err()
}

// Sweep implements Store. Redis expires entries itself; nothing to do.
func (s *RedisStore) Sweep(context.Context, time.Time) error {
	return nil
}

// Len implements Store.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	var count int
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

// Compile-time check that RedisStore implements Store
var _ Store = (*RedisStore)(nil)
