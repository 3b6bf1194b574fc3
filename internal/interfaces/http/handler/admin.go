package handler

import (
	"context"

	"github.com/erp/ordersource/internal/interfaces/http/dto"
	"github.com/erp/ordersource/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// KeyGenerator issues a new token for a scope
type KeyGenerator interface {
	Generate(ctx context.Context, scopeID string) (string, error)
}

// AdminHandler serves operator endpoints guarded by the admin JWT
type AdminHandler struct {
	BaseHandler
	keys KeyGenerator
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(keys KeyGenerator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: newBaseHandler(logger),
		keys:        keys,
	}
}

// GenerateAPIKey handles POST /admin/apikey/generate.
// The previous token of the scope stops working immediately.
func (h *AdminHandler) GenerateAPIKey(c *gin.Context) {
	var req dto.GenerateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	key, err := h.keys.Generate(c.Request.Context(), req.ScopeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	subject := ""
	if claims := middleware.GetJWTClaims(c); claims != nil {
		subject = claims.Subject
	}
	h.logger.Info("Scope token rotated",
		zap.String("scope_id", req.ScopeID),
		zap.String("operator", subject),
	)
	h.Success(c, dto.GenerateAPIKeyResponse{Key: key})
}
