package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/ordersource/internal/infrastructure/config"
	"github.com/erp/ordersource/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DiagnosticsHandler serves the unauthenticated liveness and version probes
type DiagnosticsHandler struct {
	BaseHandler
	version dto.VersionResponse
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler
func NewDiagnosticsHandler(cfg config.IntegrationConfig, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		BaseHandler: newBaseHandler(logger),
		version: dto.VersionResponse{
			Platform: dto.VersionInfo{
				Name:    cfg.PlatformName,
				Version: cfg.PlatformVersion,
				Edition: cfg.PlatformEdition,
			},
			Module: dto.VersionInfo{
				Name:    cfg.ModuleName,
				Version: cfg.ModuleVersion,
			},
		},
	}
}

// Live handles GET /diagnostics/live
func (h *DiagnosticsHandler) Live(c *gin.Context) {
	h.Success(c, dto.LiveResponse{Status: "alive"})
}

// Version handles GET /diagnostics/version
func (h *DiagnosticsHandler) Version(c *gin.Context) {
	h.Success(c, h.version)
}

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the database answers
type HealthHandler struct {
	BaseHandler
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: newBaseHandler(logger),
		db:          db,
		timeout:     2 * time.Second,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Status:  dto.StatusFailure,
			Data:    dto.HealthResponse{Status: "unhealthy", Database: "down"},
			Message: "Database unavailable",
		})
		return
	}
	h.Success(c, dto.HealthResponse{Status: "healthy", Database: "up"})
}
