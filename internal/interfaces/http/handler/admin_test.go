package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockKeyGenerator struct {
	mock.Mock
}

func (m *mockKeyGenerator) Generate(ctx context.Context, scopeID string) (string, error) {
	args := m.Called(ctx, scopeID)
	return args.String(0), args.Error(1)
}

func newAdminTestRouter(keys KeyGenerator) *gin.Engine {
	middleware.SetupValidator()
	router := gin.New()
	router.POST("/admin/apikey/generate", NewAdminHandler(keys, nil).GenerateAPIKey)
	return router
}

func postAdmin(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/apikey/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminHandler_GenerateAPIKey(t *testing.T) {
	keys := &mockKeyGenerator{}
	keys.On("Generate", mock.Anything, "store-1").Return("abc123", nil)

	w := postAdmin(newAdminTestRouter(keys), `{"scope_id":"store-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"key":"abc123"}}`, w.Body.String())
	keys.AssertExpectations(t)
}

func TestAdminHandler_GenerateAPIKeyValidation(t *testing.T) {
	keys := &mockKeyGenerator{}

	w := postAdmin(newAdminTestRouter(keys), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "scope_id: This field is required")
	keys.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAdminHandler_GenerateAPIKeyErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown scope", err: integration.ErrScopeNotFound, status: http.StatusNotFound},
		{name: "store failure", err: errors.New("disk full"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := &mockKeyGenerator{}
			keys.On("Generate", mock.Anything, "store-9").Return("", tt.err)

			w := postAdmin(newAdminTestRouter(keys), `{"scope_id":"store-9"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}
