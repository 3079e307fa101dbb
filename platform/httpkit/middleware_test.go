package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/t", handlers...)
	return r
}

func TestTenantRequiredRejectsMissingHeader(t *testing.T) {
	r := newTestRouter(TenantRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTenantRequiredExposesIdentity(t *testing.T) {
	tenant := uuid.New()
	user := uuid.New()
	var got Identity
	r := newTestRouter(TenantRequired(), func(c *gin.Context) {
		got = GetIdentity(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(HeaderTenantID, tenant.String())
	req.Header.Set(HeaderUserID, user.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, tenant, got.TenantID())
	require.NotNil(t, got.UserID())
	assert.Equal(t, user, *got.UserID())
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limiter := NewPerMinuteLimiter(1, logger.Nop())
	r := newTestRouter(limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/t", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/t", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestHandleErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("lead not found"), http.StatusNotFound},
		{apperr.Conflict("invalid status transition"), http.StatusConflict},
		{apperr.Unavailable("store down", assert.AnError), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		r := newTestRouter(func(c *gin.Context) { HandleError(c, tc.err) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}
