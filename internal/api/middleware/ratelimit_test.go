package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/api/middleware"
	"github.com/carelens/carelens/internal/identity"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/messages", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	handler := middleware.RequestID(middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(okHandler()))

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1001").Code)

	rec := hit(handler, "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), "/v1/chat/messages")

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1000").Code, "separate budget per IP")
}

func TestRateLimitByUser(t *testing.T) {
	sess, err := identity.Begin("opaque-token", identity.User{ID: "u-7"})
	require.NoError(t, err)

	handler := middleware.RequireSession(sess)(middleware.RateLimitByUser(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: time.Minute,
	})(okHandler()))

	assert.Equal(t, http.StatusOK, hit(handler, "10.1.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.1.0.2:1000").Code,
		"the budget follows the user, not the address")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	for _, cfg := range []middleware.RateLimitConfig{
		middleware.SessionRateLimit,
		middleware.ChatRateLimit,
		middleware.EmergencyRateLimit,
		middleware.StandardRateLimit,
	} {
		assert.Positive(t, cfg.RequestLimit)
		assert.Equal(t, time.Minute, cfg.WindowLength)
	}
	assert.Less(t, middleware.ChatRateLimit.RequestLimit, middleware.StandardRateLimit.RequestLimit)
}
