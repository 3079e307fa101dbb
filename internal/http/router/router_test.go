package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(rc *apphttp.RouterContext) {
	rc.Tenant.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, httpkit.GetIdentity(c).TenantID().String())
	})
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  &config.Config{CORSAllowAll: true, RateLimitPerMinute: 600},
		Logger:  logger.Nop(),
		Health:  health,
		Metrics: http.NotFoundHandler(),
		Modules: []apphttp.Module{echoModule{}},
	})
}

func TestHealthReflectsDatabasePing(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(pinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newEngine(pinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModuleRoutesRequireTenant(t *testing.T) {
	engine := newEngine(pinger{})
	tenant := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set(httpkit.HeaderTenantID, tenant.String())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenant.String(), w.Body.String())
	assert.NotEmpty(t, w.Header().Get(httpkit.HeaderRequestID))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
