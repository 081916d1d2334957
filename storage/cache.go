package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// Cache wraps a BlobStore with Redis-backed read-through caching.
type Cache struct {
	base  domain.BlobStore
	redis *redis.Client
	ttl   time.Duration
}

type cachedBlob struct {
	Data    []byte `json:"data"`
	Version string `json:"version"`
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base domain.BlobStore, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, name string) (domain.Blob, error) {
	if blob, ok := c.load(ctx, name); ok {
		return blob, nil
	}
	gen := c.generation(ctx, name)
	blob, err := c.base.Get(ctx, name)
	if err != nil {
		return domain.Blob{}, err
	}
	c.store(ctx, name, blob, gen)
	return blob, nil
}

// Put always evicts, including after a failed write, so a conflict retry
// reads the current document from the base store.
func (c *Cache) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	version, err := c.base.Put(ctx, name, data, ifVersion)
	c.evict(ctx, name)
	return version, err
}

func (c *Cache) load(ctx context.Context, name string) (domain.Blob, bool) {
	if c.redis == nil {
		return domain.Blob{}, false
	}
	data, err := c.redis.Get(ctx, blobCacheKey(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing storage without failing.
			log.WithError(err).WithField("collection", name).Debug("cache read failed")
			_ = c.redis.Del(ctx, blobCacheKey(name)).Err()
		}
		return domain.Blob{}, false
	}
	var cached cachedBlob
	if err := sonic.Unmarshal(data, &cached); err != nil || cached.Version == "" {
		_ = c.redis.Del(ctx, blobCacheKey(name)).Err()
		return domain.Blob{}, false
	}
	return domain.Blob{Data: cached.Data, Version: cached.Version}, true
}

// generation returns the eviction counter of name, or "" when Redis cannot
// be read.
func (c *Cache) generation(ctx context.Context, name string) string {
	if c.redis == nil {
		return ""
	}
	gen, err := c.redis.Get(ctx, blobGenKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "0"
	}
	if err != nil {
		return ""
	}
	return gen
}

// store fills the cache only while the eviction counter still equals gen, so
// a read that raced a write never caches the replaced version.
func (c *Cache) store(ctx context.Context, name string, blob domain.Blob, gen string) {
	if c.redis == nil || c.ttl == 0 || blob.Version == "" || gen == "" {
		return
	}
	data, err := sonic.Marshal(cachedBlob{Data: blob.Data, Version: blob.Version})
	if err != nil {
		return
	}
	genKey := blobGenKey(name)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, redis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, blobCacheKey(name), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if err != nil && !errors.Is(err, errStaleFill) && !errors.Is(err, redis.TxFailedErr) {
		log.WithError(err).WithField("collection", name).Debug("cache fill failed")
	}
}

var errStaleFill = errors.New("cache fill raced a write")

func (c *Cache) evict(ctx context.Context, name string) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, blobGenKey(name))
		p.Del(ctx, blobCacheKey(name))
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("collection", name).Warn("cache evict failed")
	}
}

func blobCacheKey(name string) string {
	return "blob:" + name
}

func blobGenKey(name string) string {
	return "blob-gen:" + name
}
