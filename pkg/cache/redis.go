package cache

import (
	"context"
	goerrors "errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flatmine/pkg/errors"
	"github.com/matzehuels/flatmine/pkg/observability"
)

// DefaultRedisPrefix namespaces dump keys in a shared Redis database.
const DefaultRedisPrefix = "flatmine:dumps:"

// RedisCache keeps dumps in Redis so several machines mining into copies
// of one catalog can share forge listings. Each dump is a single string
// value, one URL per line, stored without expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis server at rawURL
// (redis://[user:pass@]host:port/db) and checks it is reachable.
func NewRedisCache(ctx context.Context, rawURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", opts.Addr)
	}
	return &RedisCache{client: client, prefix: DefaultRedisPrefix}, nil
}

// Get reads a dump.
func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	k, err := c.key(key)
	if err != nil {
		return nil, false, err
	}
	val, err := c.client.Get(ctx, k).Result()
	if goerrors.Is(err, redis.Nil) {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeNetwork, err, "read dump %s", key)
	}
	observability.Cache().OnCacheHit(ctx, key)
	return splitLines(val), true, nil
}

// Set writes a dump, replacing any previous one.
func (c *RedisCache) Set(ctx context.Context, key string, urls []string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, k, strings.Join(urls, "\n"), 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "write dump %s", key)
	}
	observability.Cache().OnCacheSet(ctx, key, len(urls))
	return nil
}

// Delete removes a dump.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	if err := c.client.Del(ctx, k).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "delete dump %s", key)
	}
	return nil
}

// Keys returns the keys of all stored dumps, sorted.
func (c *RedisCache) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), c.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list dumps")
	}
	sort.Strings(keys)
	return keys, nil
}

// Location returns the server address and key prefix.
func (c *RedisCache) Location() string {
	return "redis://" + c.client.Options().Addr + " " + c.prefix + "*"
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(key string) (string, error) {
	if err := errors.ValidateDumpKey(key); err != nil {
		return "", err
	}
	return c.prefix + key, nil
}

// Ensure RedisCache implements Store.
var _ Store = (*RedisCache)(nil)
