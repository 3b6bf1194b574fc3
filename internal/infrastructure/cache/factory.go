package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CredentialStoreFactory builds the cached credential store from configuration
type CredentialStoreFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	recorder              LookupRecorder
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CredentialStoreFactoryOption is a functional option for configuring the factory
type CredentialStoreFactoryOption func(*CredentialStoreFactory)

// WithLogger sets the logger for the factory and the stores it builds
func WithLogger(logger *zap.Logger) CredentialStoreFactoryOption {
	return func(f *CredentialStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory tier alone. Default is true.
func WithInMemoryFallback(allow bool) CredentialStoreFactoryOption {
	return func(f *CredentialStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRecorder reports cache lookups
func WithRecorder(r LookupRecorder) CredentialStoreFactoryOption {
	return func(f *CredentialStoreFactory) {
		f.recorder = r
	}
}

// NewCredentialStoreFactory creates a new factory
func NewCredentialStoreFactory(cfg config.RedisConfig, ttl time.Duration, opts ...CredentialStoreFactoryOption) *CredentialStoreFactory {
	f := &CredentialStoreFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		recorder:              nopLookupRecorder{},
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CachedStore holds the decorated store and the resources behind it
type CachedStore struct {
	*CachedCredentialStore
	memory *InMemoryCredentialCache
	client *redis.Client
}

// Close stops the sweeper and closes the Redis client if one was opened
func (c *CachedStore) Close() error {
	c.memory.Stop()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Create wraps store. A non-positive ttl disables caching and returns a
// pass-through wrapper.
func (f *CredentialStoreFactory) Create(ctx context.Context, store integration.CredentialStore) (*CachedStore, error) {
	memory := NewInMemoryCredentialCache(WithInMemoryLogger(f.logger.Named("credential_cache")))
	storeOpts := []CachedCredentialStoreOption{
		WithLookupRecorder(f.recorder),
		WithStoreLogger(f.logger),
	}

	if f.ttl <= 0 {
		f.logger.Info("Credential caching disabled")
		return &CachedStore{
			CachedCredentialStore: NewCachedCredentialStore(store, memory, 0, storeOpts...),
			memory:                memory,
		}, nil
	}

	var client *redis.Client
	if f.redisConfig.Enabled {
		c, err := f.connect(ctx)
		switch {
		case err == nil:
			client = c
			origin := uuid.NewString()
			storeOpts = append(storeOpts, WithSharedCache(
				NewRedisCredentialCache(client, WithRedisLogger(f.logger)),
				NewRedisCredentialInvalidator(client, DefaultInvalidationChannel, origin, f.logger),
			))
			f.logger.Info("Credential cache using Redis", zap.String("addr", f.redisConfig.Addr()))
		case f.allowInMemoryFallback:
			f.logger.Warn("Redis unavailable, credential cache is per instance only", zap.Error(err))
		default:
			memory.Stop()
			return nil, err
		}
	}

	return &CachedStore{
		CachedCredentialStore: NewCachedCredentialStore(store, memory, f.ttl, storeOpts...),
		memory:                memory,
		client:                client,
	}, nil
}

func (f *CredentialStoreFactory) connect(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
