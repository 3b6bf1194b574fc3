package integration

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"go.uber.org/zap"
)

// Authenticator checks bearer tokens against the per-scope credentials.
// A token is accepted if it matches the credential of ANY scope.
type Authenticator struct {
	store  integration.CredentialStore
	logger *zap.Logger
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(store integration.CredentialStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		logger: logger,
	}
}

// Authenticate returns the first scope whose credential equals token.
// It returns integration.ErrUnauthorized when nothing matches and a wrapped
// error when the scope list cannot be read.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", integration.ErrUnauthorized
	}

	scopes, err := a.store.Scopes(ctx)
	if err != nil {
		return "", fmt.Errorf("integration: list scopes: %w", err)
	}

	for _, scopeID := range scopes {
		cred, err := a.store.Read(ctx, scopeID)
		if err != nil {
			if !shared.IsNotFound(err) {
				a.logger.Warn("Failed to read scope credential",
					zap.String("scope_id", scopeID),
					zap.Error(err),
				)
			}
			continue
		}
		if tokensEqual(cred.Token, token) {
			a.logger.Debug("Request authorized", zap.String("scope_id", scopeID))
			return scopeID, nil
		}
	}

	return "", integration.ErrUnauthorized
}

// IsAuthorized reports whether token matches any scope credential
func (a *Authenticator) IsAuthorized(ctx context.Context, token string) bool {
	_, err := a.Authenticate(ctx, token)
	return err == nil
}

func tokensEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// ---------------------------------------------------------------------------
// Legacy authentication
// ---------------------------------------------------------------------------

// LegacyCredentials are the credentials a legacy caller may present
type LegacyCredentials struct {
	Token    string
	Username string
	Password string
}

// LegacyAuthenticator accepts either a scope token or a username/password pair.
// The token is tried first; the first method that succeeds wins.
type LegacyAuthenticator struct {
	tokens *Authenticator
	users  integration.LegacyUserStore
	logger *zap.Logger
}

// NewLegacyAuthenticator creates a new LegacyAuthenticator
func NewLegacyAuthenticator(tokens *Authenticator, users integration.LegacyUserStore, logger *zap.Logger) *LegacyAuthenticator {
	return &LegacyAuthenticator{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate returns the authenticated principal: the scope id for token
// auth or the username for password auth.
func (a *LegacyAuthenticator) Authenticate(ctx context.Context, creds LegacyCredentials) (string, error) {
	if creds.Token != "" {
		scopeID, err := a.tokens.Authenticate(ctx, creds.Token)
		if err == nil {
			return scopeID, nil
		}
		if !errors.Is(err, integration.ErrUnauthorized) {
			return "", err
		}
	}

	if creds.Username == "" || creds.Password == "" {
		return "", integration.ErrUnauthorized
	}

	user, err := a.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if shared.IsNotFound(err) {
			return "", integration.ErrUnauthorized
		}
		return "", fmt.Errorf("integration: find legacy user: %w", err)
	}
	if !user.Active || !user.VerifyPassword(creds.Password) {
		a.logger.Info("Legacy login rejected", zap.String("username", creds.Username))
		return "", integration.ErrUnauthorized
	}

	return user.Username, nil
}
