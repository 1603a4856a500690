package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// DefaultRedisKey is the key under which snapshots are stored.
const DefaultRedisKey = "themecheck:cache"

// RedisBackend stores the snapshot as one JSON string value, so several
// machines can share a warm cache.
type RedisBackend struct {
	client redis.UniversalClient
	key    string
}

// NewRedisBackend creates a backend using an existing client.
// An empty key selects [DefaultRedisKey].
func NewRedisBackend(client redis.UniversalClient, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

// DialRedis parses a redis:// URL and returns a backend connected to it.
func DialRedis(rawURL, key string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUsage, err, "invalid redis url")
	}
	return NewRedisBackend(redis.NewClient(opts), key), nil
}

// Location returns the redis key.
func (b *RedisBackend) Location() string { return "redis:" + b.key }

// Load fetches the snapshot. A missing key is reported as not found.
func (b *RedisBackend) Load(ctx context.Context) (map[string]string, bool, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeCacheCorrupt, err, "read %s", b.Location())
	}
	entries, err := decodeSnapshot(b.Location(), data)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Save overwrites the snapshot key. The value has no expiry.
func (b *RedisBackend) Save(ctx context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode cache")
	}
	return b.client.Set(ctx, b.key, data, 0).Err()
}

// Clear deletes the snapshot key.
func (b *RedisBackend) Clear(ctx context.Context) (bool, error) {
	n, err := b.client.Del(ctx, b.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// Ensure RedisBackend implements Backend.
var _ Backend = (*RedisBackend)(nil)
