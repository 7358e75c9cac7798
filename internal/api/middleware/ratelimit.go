package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/carelens/carelens/internal/api/models"
)

// RateLimitConfig is a request budget per window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Bridge rate limits.
var (
	// SessionRateLimit applies to sign-in and registration (10 req/min).
	SessionRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// ChatRateLimit applies to assistant exchanges (20 req/min).
	ChatRateLimit = RateLimitConfig{RequestLimit: 20, WindowLength: time.Minute}

	// EmergencyRateLimit applies to ambulance requests (10 req/min). It
	// caps accidental repeat submissions, not genuine emergencies.
	EmergencyRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}

	// StandardRateLimit applies to everything else (120 req/min).
	StandardRateLimit = RateLimitConfig{RequestLimit: 120, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitHandler(cfg)),
	)
}

// RateLimitByUser limits requests per signed-in user, falling back to the
// client IP outside RequireSession.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(limitHandler(cfg)),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

// limitHandler writes a 429 problem. httprate does not expose the reset
// time, so Retry-After is the full window.
func limitHandler(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
			WithInstance(r.URL.Path).
			Write(w)
	}
}
