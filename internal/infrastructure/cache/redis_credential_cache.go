package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCredentialKeyPrefix = "order_source:credential:"

// RedisCredentialCache is the shared tier
type RedisCredentialCache struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *zap.Logger
}

// RedisCredentialCacheOption configures a RedisCredentialCache
type RedisCredentialCacheOption func(*RedisCredentialCache)

// WithKeyPrefix overrides the key prefix
func WithKeyPrefix(prefix string) RedisCredentialCacheOption {
	return func(c *RedisCredentialCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger *zap.Logger) RedisCredentialCacheOption {
	return func(c *RedisCredentialCache) {
		c.logger = logger
	}
}

// NewRedisCredentialCache wraps an existing client. The caller owns the client.
func NewRedisCredentialCache(client redis.UniversalClient, opts ...RedisCredentialCacheOption) *RedisCredentialCache {
	c := &RedisCredentialCache{
		client:    client,
		keyPrefix: defaultCredentialKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCredentialCache) key(scopeID string) string {
	return c.keyPrefix + scopeID
}

// Get returns the cached credential, or nil on miss
func (c *RedisCredentialCache) Get(ctx context.Context, scopeID string) (*integration.AccessCredential, error) {
	data, err := c.client.Get(ctx, c.key(scopeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential from cache: %w", err)
	}

	var cached cachedCredential
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Dropping corrupted credential cache entry",
			zap.String("scope_id", scopeID),
			zap.Error(err))
		_ = c.client.Del(ctx, c.key(scopeID)).Err()
		return nil, nil
	}
	return cached.toDomain(), nil
}

// Set caches the credential for ttl. A non-positive ttl is a no-op.
func (c *RedisCredentialCache) Set(ctx context.Context, cred *integration.AccessCredential, ttl time.Duration) error {
	if cred == nil || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(toCached(cred))
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := c.client.Set(ctx, c.key(cred.ScopeID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache credential: %w", err)
	}
	return nil
}

// Delete drops the scope's entry
func (c *RedisCredentialCache) Delete(ctx context.Context, scopeID string) error {
	if err := c.client.Del(ctx, c.key(scopeID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached credential: %w", err)
	}
	return nil
}

var _ CredentialCache = (*RedisCredentialCache)(nil)
