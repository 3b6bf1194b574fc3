package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemoryCache(t *testing.T) (*InMemoryCredentialCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewInMemoryCredentialCache(withClock(clock.Now), WithCleanupInterval(time.Hour))
	t.Cleanup(c.Stop)
	return c, clock
}

func TestInMemoryCredentialCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemoryCache(t)

	got, err := c.Get(ctx, "store-a")
	require.NoError(t, err)
	assert.Nil(t, got)

	cred := &integration.AccessCredential{ScopeID: "store-a", Token: "tok"}
	require.NoError(t, c.Set(ctx, cred, time.Minute))

	cred.Token = "mutated"
	got, err = c.Get(ctx, "store-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token, "cache holds a copy")

	got.Token = "mutated again"
	again, _ := c.Get(ctx, "store-a")
	assert.Equal(t, "tok", again.Token)

	clock.Advance(2 * time.Minute)
	got, err = c.Get(ctx, "store-a")
	require.NoError(t, err)
	assert.Nil(t, got, "expired")

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)
}

func TestInMemoryCredentialCache_SetIgnoresNilAndZeroTTL(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(t)

	require.NoError(t, c.Set(ctx, nil, time.Minute))
	require.NoError(t, c.Set(ctx, &integration.AccessCredential{ScopeID: "store-a"}, 0))

	got, _ := c.Get(ctx, "store-a")
	assert.Nil(t, got)
}

func TestInMemoryCredentialCache_DeleteAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, &integration.AccessCredential{ScopeID: id, Token: id}, time.Minute))
	}

	require.NoError(t, c.Delete(ctx, "a"))
	got, _ := c.Get(ctx, "a")
	assert.Nil(t, got)
	got, _ = c.Get(ctx, "b")
	assert.NotNil(t, got)

	c.InvalidateAll()
	got, _ = c.Get(ctx, "c")
	assert.Nil(t, got)
}

func TestInMemoryCredentialCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemoryCache(t)

	require.NoError(t, c.Set(ctx, &integration.AccessCredential{ScopeID: "short"}, time.Second))
	require.NoError(t, c.Set(ctx, &integration.AccessCredential{ScopeID: "long"}, time.Hour))

	clock.Advance(time.Minute)
	c.sweep()

	_, shortPresent := c.entries.Load("short")
	_, longPresent := c.entries.Load("long")
	assert.False(t, shortPresent)
	assert.True(t, longPresent)
}

func TestInMemoryCredentialCache_StopIsIdempotent(t *testing.T) {
	c := NewInMemoryCredentialCache(WithCleanupInterval(time.Millisecond))
	assert.NotPanics(t, func() {
		c.Stop()
		c.Stop()
	})
}

func TestInMemoryCredentialCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, &integration.AccessCredential{ScopeID: "shared", Token: "tok"}, time.Minute)
			_, _ = c.Get(ctx, "shared")
			_ = c.Delete(ctx, "shared")
		}()
	}
	wg.Wait()
}
