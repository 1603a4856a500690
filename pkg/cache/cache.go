// Package cache provides the response cache shared by all fetches of a run.
//
// A [ResponseCache] is an in-memory map from request URL to response text.
// Its lifecycle is explicit: construct once per run, [ResponseCache.Load]
// from persistent storage, [ResponseCache.Store] and [ResponseCache.Query]
// while fetching, [ResponseCache.Save] at checkpoints, and optionally
// [ResponseCache.Clear] on a separate invocation.
//
// Persistence is delegated to a [Backend]. The whole store is written as one
// unit; there are no incremental updates.
//
//   - [FileBackend]: a single JSON object on disk, replaced atomically
//   - [RedisBackend]: the same JSON object under one Redis key
//   - [NullBackend]: never persists (useful for tests and --no-cache)
package cache

import (
	"context"
	"sync"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// Backend persists a complete cache snapshot.
type Backend interface {
	// Load returns the persisted snapshot. found is false when nothing has
	// been persisted yet, which is not an error.
	Load(ctx context.Context) (entries map[string]string, found bool, err error)

	// Save replaces the persisted snapshot with entries.
	Save(ctx context.Context, entries map[string]string) error

	// Clear removes the persisted snapshot. removed is false when there was
	// nothing to remove.
	Clear(ctx context.Context) (removed bool, err error)

	// Location describes where snapshots are kept (a path or a redis key).
	Location() string
}

// ResponseCache maps URLs to response bodies.
//
// Store and Query are safe for concurrent use. Load and Save take the same
// lock, so a checkpoint never observes a half-written entry.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]string
	backend Backend
}

// New creates an empty cache persisted through backend.
// A nil backend is replaced by [NullBackend].
func New(backend Backend) *ResponseCache {
	if backend == nil {
		backend = NullBackend{}
	}
	return &ResponseCache{
		entries: make(map[string]string),
		backend: backend,
	}
}

// Backend returns the persistence backend.
func (c *ResponseCache) Backend() Backend { return c.backend }

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Store records value under key, overwriting any previous value.
// Both key and value must be non-empty.
func (c *ResponseCache) Store(key, value string) error {
	if err := errors.ValidateCacheKey(key); err != nil {
		return err
	}
	if value == "" {
		return errors.Invariantf("cache value for %q cannot be empty", key)
	}
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	return nil
}

// Query returns the value stored under key. ok is false on a miss.
func (c *ResponseCache) Query(key string) (value string, ok bool, err error) {
	if err := errors.ValidateCacheKey(key); err != nil {
		return "", false, err
	}
	c.mu.RLock()
	value, ok = c.entries[key]
	c.mu.RUnlock()
	return value, ok, nil
}

// Load populates an empty cache from the backend and returns the number of
// entries loaded. Loading into a non-empty cache is an invariant violation.
// A missing snapshot loads nothing and is not an error.
func (c *ResponseCache) Load(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) != 0 {
		return 0, errors.Invariantf("load: cache already holds %d entries", len(c.entries))
	}
	entries, found, err := c.backend.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	for k, v := range entries {
		if errors.ValidateCacheKey(k) != nil || v == "" {
			return 0, errors.New(errors.ErrCodeCacheCorrupt, "%s: invalid entry for key %q", c.backend.Location(), k)
		}
	}
	for k, v := range entries {
		c.entries[k] = v
	}
	return len(c.entries), nil
}

// Save writes the whole cache to the backend and returns the number of
// entries written. Saving an empty cache is an invariant violation, which
// keeps a bug earlier in the run from replacing a real snapshot with nothing.
func (c *ResponseCache) Save(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return 0, errors.Invariantf("save: cache is empty")
	}
	if err := c.backend.Save(ctx, c.entries); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Clear removes the persisted snapshot. The in-memory entries are untouched.
func (c *ResponseCache) Clear(ctx context.Context) (bool, error) {
	return c.backend.Clear(ctx)
}
