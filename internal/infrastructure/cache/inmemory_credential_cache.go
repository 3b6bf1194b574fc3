package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemoryCredentialCache is the per-process tier. Entries are copied on the
// way in and out so callers cannot mutate cached tokens.
type InMemoryCredentialCache struct {
	entries         sync.Map // scope id -> *cacheEntry[*integration.AccessCredential]
	logger          *zap.Logger
	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	now             func() time.Time

	hits   int64
	misses int64
}

// InMemoryCredentialCacheOption configures an InMemoryCredentialCache
type InMemoryCredentialCacheOption func(*InMemoryCredentialCache)

// WithInMemoryLogger sets the logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryCredentialCacheOption {
	return func(c *InMemoryCredentialCache) {
		c.logger = logger
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(d time.Duration) InMemoryCredentialCacheOption {
	return func(c *InMemoryCredentialCache) {
		c.cleanupInterval = d
	}
}

// withClock overrides the time source; tests only
func withClock(now func() time.Time) InMemoryCredentialCacheOption {
	return func(c *InMemoryCredentialCache) {
		c.now = now
	}
}

// NewInMemoryCredentialCache creates the cache and starts its sweeper.
// Call Stop to end the sweeper.
func NewInMemoryCredentialCache(opts ...InMemoryCredentialCacheOption) *InMemoryCredentialCache {
	c := &InMemoryCredentialCache{
		logger:          zap.NewNop(),
		cleanupInterval: defaultCleanupInterval,
		stopCh:          make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()
	return c
}

// Get returns a copy of the cached credential, or nil on miss or expiry
func (c *InMemoryCredentialCache) Get(_ context.Context, scopeID string) (*integration.AccessCredential, error) {
	if value, ok := c.entries.Load(scopeID); ok {
		entry := value.(*cacheEntry[*integration.AccessCredential])
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return cloneCredential(entry.value), nil
		}
		c.entries.CompareAndDelete(scopeID, value)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set caches a copy of the credential. A non-positive ttl is a no-op.
func (c *InMemoryCredentialCache) Set(_ context.Context, cred *integration.AccessCredential, ttl time.Duration) error {
	if cred == nil || ttl <= 0 {
		return nil
	}
	c.entries.Store(cred.ScopeID, &cacheEntry[*integration.AccessCredential]{
		value:     cloneCredential(cred),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// Delete drops the scope's entry
func (c *InMemoryCredentialCache) Delete(_ context.Context, scopeID string) error {
	c.entries.Delete(scopeID)
	return nil
}

// InvalidateAll drops every entry
func (c *InMemoryCredentialCache) InvalidateAll() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Stats returns hit and miss counts
func (c *InMemoryCredentialCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop ends the sweeper; safe to call more than once
func (c *InMemoryCredentialCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *InMemoryCredentialCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *InMemoryCredentialCache) sweep() {
	now := c.now()
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry[*integration.AccessCredential]).isExpired(now) {
			if c.entries.CompareAndDelete(key, value) {
				removed++
			}
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Swept expired credentials", zap.Int("removed", removed))
	}
}

var _ CredentialCache = (*InMemoryCredentialCache)(nil)
