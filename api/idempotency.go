package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// HeaderIdempotencyKey lets a caller that replays a batch, such as the
// transcript extractor after a timeout, avoid creating the tasks twice.
const HeaderIdempotencyKey = "Idempotency-Key"

const dedupeKeyPrefix = "dedupe"

// Deduper remembers idempotency keys per user.
type Deduper interface {
	// Add records key and reports whether it was not seen before.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove forgets key so a failed request can be retried.
	Remove(ctx context.Context, userID, key string) error
}

// RedisDeduper stores seen idempotency keys in Redis so every instance
// shares them.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(userID, key string) string {
	return dedupeKeyPrefix + ":" + userID + ":" + key
}

func (r *RedisDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(userID, key), 1, r.ttl).Result()
}

func (r *RedisDeduper) Remove(ctx context.Context, userID, key string) error {
	return r.client.Del(ctx, r.key(userID, key)).Err()
}
