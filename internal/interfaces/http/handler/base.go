// Package handler turns HTTP requests into application service calls and
// renders their results in the gateway envelope.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/erp/ordersource/internal/infrastructure/logger"
	"github.com/erp/ordersource/internal/infrastructure/telemetry"
	"github.com/erp/ordersource/internal/interfaces/http/dto"
	"github.com/erp/ordersource/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// genericFailureMessage is the only detail a client sees for unexpected errors
const genericFailureMessage = "An unexpected error occurred"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

func newBaseHandler(log *zap.Logger) BaseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return BaseHandler{logger: log}
}

// Success sends a 200 success envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Failure sends a failure envelope with the given status
func (h *BaseHandler) Failure(c *gin.Context, status int, message string) {
	c.JSON(status, dto.NewFailureResponse(message))
}

// HandleError converts an error into a failure envelope. Domain errors keep
// their message and map to their status; anything else is logged and
// answered with 500 and a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if middleware.BodyTooLarge(err) {
		h.Failure(c, http.StatusRequestEntityTooLarge, middleware.BodyTooLargeMessage)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Failure(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Message)
		return
	}

	h.requestLogger(c).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Bool("deadline_exceeded", errors.Is(err, context.DeadlineExceeded)),
		zap.Error(err),
	)
	h.Failure(c, http.StatusInternalServerError, genericFailureMessage)
}

func (h *BaseHandler) requestLogger(c *gin.Context) *zap.Logger {
	if l := logger.GetGinLogger(c); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
}

// dispatch runs one JSON operation: read the body, decode the envelope,
// call the service inside an operation span and render the outcome.
func dispatch[T any, PT interface {
	*T
	integration.Envelope
}, R any](h *BaseHandler, c *gin.Context, operation string, call func(ctx context.Context, req PT) (R, error)) {
	ctx, span := telemetry.StartOperationSpan(c.Request.Context(), operation,
		telemetry.SpanAttrScopeID, middleware.GetScopeID(c),
	)
	defer span.End()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		telemetry.RecordError(span, err)
		h.HandleError(c, err)
		return
	}

	req, err := integration.DecodeRequest[T, PT](body)
	if err != nil {
		telemetry.RecordError(span, err)
		h.HandleError(c, err)
		return
	}

	resp, err := call(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
