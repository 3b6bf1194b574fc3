package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"go.uber.org/zap"
)

// CachedCredentialStore is a read-through integration.CredentialStore.
// Reads try memory, then Redis, then the backing store; writes go to the
// backing store and then drop the scope from every tier.
type CachedCredentialStore struct {
	store       integration.CredentialStore
	memory      *InMemoryCredentialCache
	shared      CredentialCache // nil when Redis is not configured
	invalidator *RedisCredentialInvalidator
	ttl         time.Duration
	recorder    LookupRecorder
	logger      *zap.Logger

	scopesMu      sync.Mutex
	scopes        []string
	scopesExpires time.Time
}

// CachedCredentialStoreOption configures a CachedCredentialStore
type CachedCredentialStoreOption func(*CachedCredentialStore)

// WithSharedCache adds the Redis tier and its invalidation channel
func WithSharedCache(shared CredentialCache, invalidator *RedisCredentialInvalidator) CachedCredentialStoreOption {
	return func(s *CachedCredentialStore) {
		s.shared = shared
		s.invalidator = invalidator
	}
}

// WithLookupRecorder reports hits and misses
func WithLookupRecorder(r LookupRecorder) CachedCredentialStoreOption {
	return func(s *CachedCredentialStore) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithStoreLogger sets the logger
func WithStoreLogger(logger *zap.Logger) CachedCredentialStoreOption {
	return func(s *CachedCredentialStore) {
		s.logger = logger
	}
}

// NewCachedCredentialStore wraps store with an in-memory tier holding entries for ttl
func NewCachedCredentialStore(store integration.CredentialStore, memory *InMemoryCredentialCache, ttl time.Duration, opts ...CachedCredentialStoreOption) *CachedCredentialStore {
	s := &CachedCredentialStore{
		store:    store,
		memory:   memory,
		ttl:      ttl,
		recorder: nopLookupRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxScopeListTTL bounds how long the scope list is cached, so a scope that
// was deactivated stops authorizing soon even with a long credential ttl.
const MaxScopeListTTL = 30 * time.Second

// Scopes returns the active scope ids, cached in memory for the ttl
// capped at MaxScopeListTTL
func (s *CachedCredentialStore) Scopes(ctx context.Context) ([]string, error) {
	s.scopesMu.Lock()
	if s.scopes != nil && time.Now().Before(s.scopesExpires) {
		scopes := append([]string(nil), s.scopes...)
		s.scopesMu.Unlock()
		return scopes, nil
	}
	s.scopesMu.Unlock()

	return s.RefreshScopes(ctx)
}

// RefreshScopes reads the scope list from the backing store and replaces the cached copy
func (s *CachedCredentialStore) RefreshScopes(ctx context.Context) ([]string, error) {
	scopes, err := s.store.Scopes(ctx)
	if err != nil {
		return nil, err
	}

	s.scopesMu.Lock()
	s.scopes = append([]string(nil), scopes...)
	s.scopesExpires = time.Now().Add(min(s.ttl, MaxScopeListTTL))
	s.scopesMu.Unlock()
	return scopes, nil
}

// Read returns the scope's credential. Cache failures fall through to the
// backing store; only its errors are returned.
func (s *CachedCredentialStore) Read(ctx context.Context, scopeID string) (*integration.AccessCredential, error) {
	if cred, _ := s.memory.Get(ctx, scopeID); cred != nil {
		s.recorder.RecordCredentialLookup(TierMemory, true)
		return cred, nil
	}
	s.recorder.RecordCredentialLookup(TierMemory, false)

	if s.shared != nil {
		cred, err := s.shared.Get(ctx, scopeID)
		if err != nil {
			s.logger.Warn("Shared credential cache unavailable", zap.String("scope_id", scopeID), zap.Error(err))
		}
		s.recorder.RecordCredentialLookup(TierRedis, cred != nil)
		if cred != nil {
			_ = s.memory.Set(ctx, cred, s.ttl)
			return cred, nil
		}
	}

	cred, err := s.store.Read(ctx, scopeID)
	if err != nil {
		return nil, err
	}

	_ = s.memory.Set(ctx, cred, s.ttl)
	if s.shared != nil {
		if err := s.shared.Set(ctx, cred, s.ttl); err != nil {
			s.logger.Warn("Failed to populate shared credential cache", zap.String("scope_id", scopeID), zap.Error(err))
		}
	}
	return cred, nil
}

// Write stores the credential and invalidates it everywhere. A stale shared
// entry would let a rotated token keep authenticating, so a failed Redis
// delete is returned to the caller.
func (s *CachedCredentialStore) Write(ctx context.Context, cred *integration.AccessCredential) error {
	if err := s.store.Write(ctx, cred); err != nil {
		return err
	}

	_ = s.memory.Delete(ctx, cred.ScopeID)
	if s.shared == nil {
		return nil
	}
	if err := s.shared.Delete(ctx, cred.ScopeID); err != nil {
		return err
	}
	if s.invalidator != nil {
		if err := s.invalidator.Publish(ctx, cred.ScopeID); err != nil {
			s.logger.Warn("Failed to broadcast credential invalidation", zap.String("scope_id", cred.ScopeID), zap.Error(err))
		}
	}
	return nil
}

// ListenForInvalidations drops in-memory entries announced by other
// instances. It blocks until ctx ends; without a shared tier it returns at once.
func (s *CachedCredentialStore) ListenForInvalidations(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	return s.invalidator.Subscribe(ctx, func(scopeID string) {
		_ = s.memory.Delete(ctx, scopeID)
		s.logger.Debug("Dropped credential on remote write", zap.String("scope_id", scopeID))
	})
}

var (
	_ integration.CredentialStore = (*CachedCredentialStore)(nil)
	_ integration.ScopeRefresher  = (*CachedCredentialStore)(nil)
)
