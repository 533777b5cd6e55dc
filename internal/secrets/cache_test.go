package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Get(t *testing.T) {
	t.Run("refreshes only after the ttl elapses", func(t *testing.T) {
		clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		fetches := 0
		source := SourceFunc(func(context.Context) (string, error) {
			fetches++
			return "secret-v1", nil
		})

		cache := NewCacheWithClock(source, 5*time.Minute, func() time.Time { return clock })

		for i := 0; i < 3; i++ {
			value, err := cache.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "secret-v1", value)
		}
		assert.Equal(t, 1, fetches)

		// Just inside the window: still cached.
		clock = clock.Add(5*time.Minute - time.Second)
		_, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fetches)

		// Past the window: one refresh.
		clock = clock.Add(2 * time.Second)
		value, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "secret-v1", value)
		assert.Equal(t, 2, fetches)
	})

	t.Run("rotated value is picked up on refresh", func(t *testing.T) {
		clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		values := []string{"secret-v1", "secret-v2"}
		fetches := 0
		source := SourceFunc(func(context.Context) (string, error) {
			value := values[fetches]
			fetches++
			return value, nil
		})

		cache := NewCacheWithClock(source, time.Minute, func() time.Time { return clock })

		value, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "secret-v1", value)

		clock = clock.Add(2 * time.Minute)
		value, err = cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "secret-v2", value)
	})

	t.Run("failed refresh empties the cache and retries next call", func(t *testing.T) {
		clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		fail := false
		fetches := 0
		source := SourceFunc(func(context.Context) (string, error) {
			fetches++
			if fail {
				return "", errors.New("vault unreachable")
			}
			return "secret-v1", nil
		})

		cache := NewCacheWithClock(source, time.Minute, func() time.Time { return clock })

		_, err := cache.Get(context.Background())
		require.NoError(t, err)

		fail = true
		clock = clock.Add(2 * time.Minute)
		_, err = cache.Get(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch secret")

		// Recovery is immediate, not deferred to the next expiry.
		fail = false
		value, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "secret-v1", value)
		assert.Equal(t, 3, fetches)
	})
}

func TestStaticSource(t *testing.T) {
	value, err := StaticSource("fixed").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", value)
}
