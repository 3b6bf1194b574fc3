package integration

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"go.uber.org/zap"
)

// APIKeyService issues scope access tokens for administrators
type APIKeyService struct {
	store  integration.CredentialStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAPIKeyService creates a new APIKeyService
func NewAPIKeyService(store integration.CredentialStore, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Generate creates a new token for the scope, replacing any previous one.
// The previous token stops working immediately.
func (s *APIKeyService) Generate(ctx context.Context, scopeID string) (string, error) {
	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" {
		return "", integration.ErrScopeRequired
	}

	known, err := s.scopeExists(ctx, scopeID)
	if err != nil {
		return "", err
	}
	if !known {
		return "", integration.ErrScopeNotFound
	}

	token, err := integration.GenerateToken()
	if err != nil {
		return "", err
	}

	cred := &integration.AccessCredential{
		ScopeID:   scopeID,
		Token:     token,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.Write(ctx, cred); err != nil {
		return "", fmt.Errorf("integration: write credential: %w", err)
	}

	s.logger.Info("Access token regenerated", zap.String("scope_id", scopeID))
	return token, nil
}

// scopeExists checks the scope list. A miss on a cached list is confirmed
// against the backing store so a just-registered scope is found.
func (s *APIKeyService) scopeExists(ctx context.Context, scopeID string) (bool, error) {
	scopes, err := s.store.Scopes(ctx)
	if err != nil {
		return false, fmt.Errorf("integration: list scopes: %w", err)
	}
	if slices.Contains(scopes, scopeID) {
		return true, nil
	}

	refresher, ok := s.store.(integration.ScopeRefresher)
	if !ok {
		return false, nil
	}
	scopes, err = refresher.RefreshScopes(ctx)
	if err != nil {
		return false, fmt.Errorf("integration: refresh scopes: %w", err)
	}
	return slices.Contains(scopes, scopeID), nil
}
