package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/cache"
	"github.com/jsamuelsen/mnemosyne/internal/mocks"
)

func serveOnce(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	router.ServeHTTP(w, req)

	return w
}

func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.POST("/login", mw, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return router
}

func TestRateLimit_Budget(t *testing.T) {
	t.Parallel()

	router := limitedRouter(RateLimit(cache.NewMemoryRateLimiter(2, time.Minute), nil, "auth"))

	assert.Equal(t, http.StatusNoContent, serveOnce(router).Code)
	assert.Equal(t, http.StatusNoContent, serveOnce(router).Code)

	w := serveOnce(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestRateLimit_KeyedByScopeAndIP(t *testing.T) {
	t.Parallel()

	limiter := mocks.NewMockRateLimiter(t)
	limiter.EXPECT().Allow(mock.Anything, "auth:203.0.113.7").Return(true, 0, nil).Once()

	router := limitedRouter(RateLimit(limiter, nil, "auth"))

	assert.Equal(t, http.StatusNoContent, serveOnce(router).Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	t.Parallel()

	limiter := mocks.NewMockRateLimiter(t)
	limiter.EXPECT().Allow(mock.Anything, mock.Anything).Return(false, 0, errors.New("redis down"))

	router := limitedRouter(RateLimit(limiter, nil, "auth"))

	assert.Equal(t, http.StatusNoContent, serveOnce(router).Code)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	t.Parallel()

	router := limitedRouter(RateLimit(nil, nil, "auth"))

	for range 5 {
		assert.Equal(t, http.StatusNoContent, serveOnce(router).Code)
	}
}
