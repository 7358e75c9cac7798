package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/pkg/geo"
)

// EmergencyHandler serves ambulance requests.
type EmergencyHandler struct {
	dispatcher *emergency.Dispatcher
	logger     zerolog.Logger
}

// NewEmergencyHandler creates a new EmergencyHandler.
func NewEmergencyHandler(dispatcher *emergency.Dispatcher, logger zerolog.Logger) *EmergencyHandler {
	return &EmergencyHandler{dispatcher: dispatcher, logger: logger}
}

// Create handles POST /v1/emergency/requests. Every call dispatches a new
// request.
func (h *EmergencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body models.EmergencyRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	var origin *geo.Position
	if body.Origin != nil {
		pos := geo.Position{Coordinate: *body.Origin, AcquiredAt: time.Now()}
		origin = &pos
	}

	req, err := h.dispatcher.Request(r.Context(), body.Form, origin)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/emergency/requests/active", req)
}

// Active handles GET /v1/emergency/requests/active.
func (h *EmergencyHandler) Active(w http.ResponseWriter, r *http.Request) {
	req, ok := h.dispatcher.Active()
	if !ok {
		response.NotFound(w, r, "no active ambulance request")
		return
	}
	response.JSON(w, r, http.StatusOK, req)
}

// Dismiss handles DELETE /v1/emergency/requests/active. It clears the
// local view; the dispatch itself is not cancelled.
func (h *EmergencyHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.dispatcher.Reset()
	response.NoContent(w, r)
}

// Info handles GET /v1/emergency/numbers.
func (h *EmergencyHandler) Info(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.EmergencyInfo{
		Numbers: emergency.EmergencyNumbers(),
		Types:   emergency.Types(),
	})
}
