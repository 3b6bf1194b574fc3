// Package cache keeps scope credentials close to the authenticator.
//
// Two tiers sit in front of the credential store: a per-process in-memory
// map and an optional Redis cache shared by every gateway instance. A write
// through CachedCredentialStore drops both tiers and broadcasts the scope on
// a Redis channel so other instances drop their in-memory copy too.
package cache

import (
	"context"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
)

// Cache tiers reported to a LookupRecorder
const (
	TierMemory = "memory"
	TierRedis  = "redis"
)

// CredentialCache stores credentials by scope id. Get returns nil without
// error on a miss.
type CredentialCache interface {
	Get(ctx context.Context, scopeID string) (*integration.AccessCredential, error)
	Set(ctx context.Context, cred *integration.AccessCredential, ttl time.Duration) error
	Delete(ctx context.Context, scopeID string) error
}

// LookupRecorder observes cache hits and misses per tier
type LookupRecorder interface {
	RecordCredentialLookup(tier string, hit bool)
}

type nopLookupRecorder struct{}

func (nopLookupRecorder) RecordCredentialLookup(string, bool) {}

// cachedCredential is the Redis wire form of an AccessCredential
type cachedCredential struct {
	ScopeID   string    `json:"scope_id"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCached(c *integration.AccessCredential) cachedCredential {
	return cachedCredential{ScopeID: c.ScopeID, Token: c.Token, UpdatedAt: c.UpdatedAt}
}

func (c cachedCredential) toDomain() *integration.AccessCredential {
	return &integration.AccessCredential{ScopeID: c.ScopeID, Token: c.Token, UpdatedAt: c.UpdatedAt}
}

func cloneCredential(c *integration.AccessCredential) *integration.AccessCredential {
	cp := *c
	return &cp
}
