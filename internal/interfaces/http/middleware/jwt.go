package middleware

import (
	"errors"
	"net/http"

	"github.com/erp/ordersource/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTClaimsKey is the gin context key of validated admin claims
const JWTClaimsKey = "jwt_claims"

// AdminJWTConfig holds configuration for the admin token middleware
type AdminJWTConfig struct {
	JWTService *auth.JWTService
	// RequiredRole defaults to auth.RoleAdmin
	RequiredRole string
	Limiter      *FailureLimiter
	Logger       *zap.Logger
}

// AdminJWT requires a valid bearer JWT carrying the admin role
func AdminJWT(cfg AdminJWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	role := cfg.RequiredRole
	if role == "" {
		role = auth.RoleAdmin
	}

	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if cfg.Limiter != nil && cfg.Limiter.Blocked(clientKey) {
			abortWithFailure(c, http.StatusTooManyRequests, "Too many failed authentication attempts")
			return
		}

		tokenString := BearerToken(c)
		if tokenString == "" {
			abortWithFailure(c, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			if cfg.Limiter != nil {
				cfg.Limiter.RecordFailure(clientKey)
			}
			log.Warn("Admin token rejected",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			abortWithFailure(c, http.StatusUnauthorized, tokenErrorMessage(err))
			return
		}

		if !claims.HasRole(role) {
			log.Warn("Admin role missing",
				zap.String("subject", claims.Subject),
				zap.Strings("roles", claims.Roles),
			)
			abortWithFailure(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Next()
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	default:
		return "Invalid token"
	}
}

// GetJWTClaims retrieves admin claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
