package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

const (
	redisDataField    = "data"
	redisVersionField = "version"
)

// Redis stores each collection as a hash holding the document and a numeric
// version. Conditional writes use WATCH/MULTI on the hash key.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	if client == nil {
		panic("storage.NewRedis: client is nil")
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(name string) string {
	return r.prefix + "collection:" + name
}

func (r *Redis) Get(ctx context.Context, name string) (domain.Blob, error) {
	vals, err := r.client.HMGet(ctx, r.key(name), redisDataField, redisVersionField).Result()
	if err != nil {
		return domain.Blob{}, fmt.Errorf("redis get %s: %w", name, err)
	}
	data, _ := vals[0].(string)
	version, _ := vals[1].(string)
	if version == "" {
		return domain.Blob{}, nil
	}
	return domain.Blob{Data: []byte(data), Version: version}, nil
}

func (r *Redis) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	key := r.key(name)
	var next string
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, redisVersionField).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if !versionMatches(current, ifVersion) {
			return domain.ErrConcurrencyConflict
		}
		next = nextVersion(current)
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, redisDataField, data, redisVersionField, next)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, domain.ErrConcurrencyConflict), errors.Is(err, redis.TxFailedErr):
		return "", domain.ErrConcurrencyConflict
	}
	return "", fmt.Errorf("redis put %s: %w", name, err)
}

func nextVersion(current string) string {
	n, _ := strconv.ParseUint(current, 10, 64)
	return strconv.FormatUint(n+1, 10)
}

// Ping checks the connection to the Redis server.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
