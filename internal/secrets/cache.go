// Package secrets provides cached retrieval of the webhook signing secret.
package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Source fetches the secret value from wherever it lives. Implementations
// may be slow or remote; Cache keeps calls off the hot path.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Fetch(ctx context.Context) (string, error) { return f(ctx) }

// StaticSource returns a fixed value, typically loaded from configuration
// at startup.
func StaticSource(value string) Source {
	return SourceFunc(func(context.Context) (string, error) { return value, nil })
}

// Cache holds the last fetched value together with its expiry behind a
// single mutex. Concurrent callers during a refresh serialize on the lock
// so the source is consulted once per expiry window. The clock is
// injectable; there is no package-level state.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	value  string
	expiry time.Time
}

func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl, now: time.Now}
}

// NewCacheWithClock is NewCache with a caller-supplied clock, for tests.
func NewCacheWithClock(source Source, ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{source: source, ttl: ttl, now: now}
}

// Get returns the cached value, refreshing it from the source once the
// expiry has passed. A failed refresh leaves the cache empty so the next
// call tries again.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.value != "" && now.Before(c.expiry) {
		return c.value, nil
	}

	value, err := c.source.Fetch(ctx)
	if err != nil {
		c.value = ""
		return "", fmt.Errorf("fetch secret: %w", err)
	}

	c.value = value
	c.expiry = now.Add(c.ttl)
	return value, nil
}
