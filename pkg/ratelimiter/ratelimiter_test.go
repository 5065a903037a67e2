package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/pkg/ratelimiter"
)

func newBucket(t *testing.T, cfg ratelimiter.Config) *ratelimiter.Bucket {
	t.Helper()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b
}

func TestNewBucket(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))

	invalid := []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1, RefillInterval: 0},
	}
	for _, cfg := range invalid {
		_, err := ratelimiter.NewBucket(store, cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()

	t.Run("exactly capacity requests succeed", func(t *testing.T) {
		t.Parallel()

		b := newBucket(t, ratelimiter.Config{
			Capacity:       5,
			RefillRate:     5,
			RefillInterval: 15 * time.Minute,
		})

		ctx := context.Background()
		for i := range 5 {
			res, err := b.Allow(ctx, "user@example.com")
			require.NoError(t, err)
			assert.True(t, res.Allowed(), "request %d should be allowed", i+1)
		}

		res, err := b.Allow(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, res.Allowed(), "request beyond capacity must be denied")
		assert.Positive(t, res.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		b := newBucket(t, ratelimiter.Config{
			Capacity:       1,
			RefillRate:     1,
			RefillInterval: time.Hour,
		})

		ctx := context.Background()

		res, err := b.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())

		res, err = b.Allow(ctx, "b@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())

		res, err = b.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
	})

	t.Run("tokens refill after the interval", func(t *testing.T) {
		t.Parallel()

		b := newBucket(t, ratelimiter.Config{
			Capacity:       1,
			RefillRate:     1,
			RefillInterval: 20 * time.Millisecond,
		})

		ctx := context.Background()

		res, err := b.Allow(ctx, "refill@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())

		res, err = b.Allow(ctx, "refill@example.com")
		require.NoError(t, err)
		assert.False(t, res.Allowed())

		time.Sleep(30 * time.Millisecond)

		res, err = b.Allow(ctx, "refill@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("reset restores the bucket", func(t *testing.T) {
		t.Parallel()

		b := newBucket(t, ratelimiter.Config{
			Capacity:       1,
			RefillRate:     1,
			RefillInterval: time.Hour,
		})

		ctx := context.Background()

		_, err := b.Allow(ctx, "reset@example.com")
		require.NoError(t, err)

		res, err := b.Allow(ctx, "reset@example.com")
		require.NoError(t, err)
		assert.False(t, res.Allowed())

		require.NoError(t, b.Reset(ctx, "reset@example.com"))

		res, err = b.Allow(ctx, "reset@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("rejects non-positive token counts", func(t *testing.T) {
		t.Parallel()

		b := newBucket(t, ratelimiter.Config{
			Capacity:       1,
			RefillRate:     1,
			RefillInterval: time.Hour,
		})

		_, err := b.AllowN(context.Background(), "k", 0)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})
}

func TestBucketConcurrency(t *testing.T) {
	t.Parallel()

	const capacity = 10

	b := newBucket(t, ratelimiter.Config{
		Capacity:       capacity,
		RefillRate:     capacity,
		RefillInterval: time.Hour,
	})

	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(ctx, "concurrent@example.com")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, allowed, "exactly capacity requests may pass under concurrency")
}
