package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/platform"
)

// DashboardHandler serves the activity summary.
type DashboardHandler struct {
	client *platform.Client
	logger zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(client *platform.Client, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{client: client, logger: logger}
}

// Get handles GET /v1/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}
