package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/location"
)

// DoctorHandler serves the doctor directory and the doctor portal.
type DoctorHandler struct {
	service         *doctor.Service
	location        *location.Provider
	locationTimeout time.Duration
	logger          zerolog.Logger
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(service *doctor.Service, loc *location.Provider, locationTimeout time.Duration, logger zerolog.Logger) *DoctorHandler {
	return &DoctorHandler{
		service:         service,
		location:        loc,
		locationTimeout: locationTimeout,
		logger:          logger,
	}
}

// List handles GET /v1/doctors?q&specialization&lat&lng&all.
//
// The origin is lat/lng when given, otherwise the device location (which
// may be the fallback place). all=true lists the directory unranked.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	origin, fieldErrs := parseOrigin(params.Get("lat"), params.Get("lng"))
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid doctor query", fieldErrs)
		return
	}
	query := doctor.Query{Text: params.Get("q"), Specialization: params.Get("specialization")}

	var resp models.DoctorsResponse
	if origin == nil && params.Get("all") != "true" && h.location != nil {
		fix := h.location.Acquire(r.Context(), h.locationTimeout, h.location.Fallback())
		origin = &fix.Position.Coordinate
		resp.Location = &fix
	}

	view, err := h.service.Discover(r.Context(), origin, query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp.View = view
	response.JSON(w, r, http.StatusOK, resp)
}

// Profile handles GET /v1/doctors/profile.
func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Profile(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.DoctorProfileResponse{
		Profile:         d,
		Specializations: doctor.Specializations,
	})
}

// SaveProfile handles PUT /v1/doctors/profile.
func (h *DoctorHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req models.DoctorProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile := req.ToProfile()

	if profile.Coordinate == nil && h.location != nil {
		fix := h.location.Acquire(r.Context(), h.locationTimeout, h.location.Fallback())
		if !fix.IsFallback() {
			c := fix.Position.Coordinate
			profile.Coordinate = &c
		}
	}

	d, err := h.service.SaveProfile(r.Context(), profile)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.DoctorProfileResponse{
		Profile:         d,
		Specializations: doctor.Specializations,
	})
}
