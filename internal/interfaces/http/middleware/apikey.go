package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	appintegration "github.com/erp/ordersource/internal/application/integration"
	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/infrastructure/logger"
	"github.com/erp/ordersource/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Auth header constants
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	ScopeIDKey    = "scope_id"
)

// TokenAuthenticator resolves a bearer token to the scope it belongs to
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthFailureRecorder counts rejected credentials
type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// APIKeyAuthConfig holds configuration for the bearer token middleware
type APIKeyAuthConfig struct {
	Authenticator TokenAuthenticator
	// Limiter is optional; without it failures are never throttled
	Limiter *FailureLimiter
	// Recorder is optional
	Recorder AuthFailureRecorder
	Logger   *zap.Logger
}

// APIKeyAuth authenticates requests carrying "Authorization: Bearer <token>"
// against the scope credentials. The matched scope is stored on the gin
// context, the request context, the request logger and the active span.
func APIKeyAuth(cfg APIKeyAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if cfg.Limiter != nil && cfg.Limiter.Blocked(clientKey) {
			abortWithFailure(c, http.StatusTooManyRequests, "Too many failed authentication attempts")
			return
		}

		scopeID, err := cfg.Authenticator.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			if errors.Is(err, integration.ErrUnauthorized) {
				rejectCredentials(c, cfg.Limiter, cfg.Recorder, clientKey)
				return
			}
			log.Error("Credential lookup failed",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			abortWithFailure(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		SetScope(c, scopeID)
		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthHeaderKey)
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(BearerPrefix):])
}

// SetScope records the authenticated scope for downstream handlers
func SetScope(c *gin.Context, scopeID string) {
	ctx := appintegration.WithScope(c.Request.Context(), scopeID)
	ctx, _ = logger.WithScopeID(ctx, logger.FromContext(ctx), scopeID)
	c.Request = c.Request.WithContext(ctx)
	c.Set(ScopeIDKey, scopeID)

	telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.SpanAttrScopeID, scopeID)
}

// GetScopeID returns the scope set by an auth middleware
func GetScopeID(c *gin.Context) string {
	return c.GetString(ScopeIDKey)
}

func rejectCredentials(c *gin.Context, limiter *FailureLimiter, recorder AuthFailureRecorder, clientKey string) {
	if limiter != nil {
		limiter.RecordFailure(clientKey)
	}
	if recorder != nil {
		recorder.RecordAuthFailure()
	}
	abortWithFailure(c, http.StatusUnauthorized, integration.ErrUnauthorized.Message)
}
