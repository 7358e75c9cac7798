package handler

import (
	"net/http"
	"time"

	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/location"
)

// LocationHandler exposes the device position.
type LocationHandler struct {
	provider *location.Provider
	timeout  time.Duration
}

// NewLocationHandler creates a new LocationHandler. timeout bounds the live
// read; the provider's configured fallback place is used when it fails.
func NewLocationHandler(provider *location.Provider, timeout time.Duration) *LocationHandler {
	return &LocationHandler{provider: provider, timeout: timeout}
}

// Get handles GET /v1/location. It always answers 200: a failed live read
// yields the fallback fix with source "fallback". ?refresh=true skips the
// cached fix.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		h.provider.Invalidate()
	}
	fix := h.provider.Acquire(r.Context(), h.timeout, h.provider.Fallback())
	response.JSON(w, r, http.StatusOK, fix)
}
