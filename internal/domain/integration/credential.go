package integration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenBytes is the number of random bytes in a generated access token
	TokenBytes = 32
	bcryptCost = 12
)

// AccessCredential is the static bearer token of one scope.
// A scope has at most one credential; regenerating overwrites it.
type AccessCredential struct {
	ScopeID   string
	Token     string
	UpdatedAt time.Time
}

// CredentialStore persists one access credential per scope.
// Read returns shared.ErrNotFound (wrapped) when the scope has no credential.
type CredentialStore interface {
	Scopes(ctx context.Context) ([]string, error)
	Read(ctx context.Context, scopeID string) (*AccessCredential, error)
	Write(ctx context.Context, cred *AccessCredential) error
}

// ScopeRefresher is implemented by stores that cache the scope list.
// RefreshScopes reads the list from the backing store and replaces the cached copy.
type ScopeRefresher interface {
	RefreshScopes(ctx context.Context) ([]string, error)
}

// GenerateToken returns a new random access token as lowercase hex
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("integration: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// LegacyUser is an account allowed to use the legacy XML endpoint
type LegacyUser struct {
	Username     string
	PasswordHash string
	Active       bool
}

// LegacyUserStore looks up legacy endpoint accounts
type LegacyUserStore interface {
	FindByUsername(ctx context.Context, username string) (*LegacyUser, error)
}

// VerifyPassword checks the password against the stored bcrypt hash
func (u *LegacyUser) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// HashPassword hashes a legacy user password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("integration: hash password: %w", err)
	}
	return string(hash), nil
}
