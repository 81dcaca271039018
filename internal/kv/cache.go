package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CacheStore adapts an eko/gocache cache to the Store interface.
// The memory store hands back the []byte it was given, the redis store a string.
type CacheStore struct {
	cache  *cache.Cache[any]
	closer func() error
}

var _ Store = (*CacheStore)(nil)

// NewMemory returns a process-local store. Data is lost on exit.
func NewMemory() *CacheStore {
	// entries never expire, the store is the source of truth in local mode
	gocacheClient := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return &CacheStore{
		cache:  cache.New[any](gocacheStore),
		closer: func() error { return nil },
	}
}

// NewRedis returns a store backed by the redis server at addr.
func NewRedis(addr string) (*CacheStore, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	redisStore := redis_store.NewRedis(redisClient)
	return &CacheStore{
		cache:  cache.New[any](redisStore),
		closer: redisClient.Close,
	}, nil
}

func (c *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected value type %T for key %s", data, key)
	}
}

func (c *CacheStore) Set(ctx context.Context, key string, value []byte) error {
	if err := c.cache.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (c *CacheStore) Delete(ctx context.Context, key string) error {
	if err := c.cache.Delete(ctx, key); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (c *CacheStore) Close() error {
	return c.closer()
}

func (c *CacheStore) Type() string {
	return c.cache.GetType()
}

func isNotFound(err error) bool {
	var nf *store.NotFound
	if errors.As(err, &nf) || errors.Is(err, redis.Nil) {
		return true
	}
	// some store versions return the NotFound error by value
	return strings.HasPrefix(err.Error(), "value not found")
}
