package middleware

import (
	"context"
	"errors"
	"net/http"

	appintegration "github.com/erp/ordersource/internal/application/integration"
	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Legacy credential parameters, accepted as headers or query parameters
const (
	LegacyUsernameParam = "SS-UserName"
	LegacyPasswordParam = "SS-Password"
	LegacyPrincipalKey  = "legacy_principal"
)

// LegacyCredentialAuthenticator checks a token or a username/password pair
type LegacyCredentialAuthenticator interface {
	Authenticate(ctx context.Context, creds appintegration.LegacyCredentials) (string, error)
}

// LegacyAuthConfig holds configuration for the legacy endpoint middleware
type LegacyAuthConfig struct {
	Authenticator LegacyCredentialAuthenticator
	// TokenHeader carries a scope token as an alternative to username/password
	TokenHeader string
	Limiter     *FailureLimiter
	Recorder    AuthFailureRecorder
	// OnFailure renders a rejection; defaults to the JSON failure envelope
	OnFailure func(c *gin.Context, status int, message string)
	Logger    *zap.Logger
}

// LegacyAuth authenticates the legacy XML entry point. The token header is
// tried first, then SS-UserName/SS-Password from headers or query.
func LegacyAuth(cfg LegacyAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fail := cfg.OnFailure
	if fail == nil {
		fail = abortWithFailure
	}

	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if cfg.Limiter != nil && cfg.Limiter.Blocked(clientKey) {
			fail(c, http.StatusTooManyRequests, "Too many failed authentication attempts")
			return
		}

		creds := appintegration.LegacyCredentials{
			Username: headerOrQuery(c, LegacyUsernameParam),
			Password: headerOrQuery(c, LegacyPasswordParam),
		}
		if cfg.TokenHeader != "" {
			creds.Token = c.GetHeader(cfg.TokenHeader)
		}

		principal, err := cfg.Authenticator.Authenticate(c.Request.Context(), creds)
		if err != nil {
			if errors.Is(err, integration.ErrUnauthorized) {
				if cfg.Limiter != nil {
					cfg.Limiter.RecordFailure(clientKey)
				}
				if cfg.Recorder != nil {
					cfg.Recorder.RecordAuthFailure()
				}
				fail(c, http.StatusUnauthorized, "Authentication failed")
				return
			}
			log.Error("Legacy credential lookup failed",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(LegacyPrincipalKey, principal)
		c.Next()
	}
}

// GetLegacyPrincipal returns the scope id or username accepted by LegacyAuth
func GetLegacyPrincipal(c *gin.Context) string {
	return c.GetString(LegacyPrincipalKey)
}

func headerOrQuery(c *gin.Context, name string) string {
	if v := c.GetHeader(name); v != "" {
		return v
	}
	return c.Query(name)
}
