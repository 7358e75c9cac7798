package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/pkg/geo"
)

// HospitalHandler serves hospital discovery.
type HospitalHandler struct {
	service         *hospital.Service
	location        *location.Provider
	locationTimeout time.Duration
	logger          zerolog.Logger
}

// NewHospitalHandler creates a new HospitalHandler.
func NewHospitalHandler(service *hospital.Service, loc *location.Provider, locationTimeout time.Duration, logger zerolog.Logger) *HospitalHandler {
	return &HospitalHandler{
		service:         service,
		location:        loc,
		locationTimeout: locationTimeout,
		logger:          logger,
	}
}

// List handles GET /v1/hospitals?q&type&ambulance&lat&lng&city&all.
//
// The origin is lat/lng when given, otherwise the device location (which
// may be the fallback place). all=true lists the whole catalog unranked;
// city restricts the listing to one city.
func (h *HospitalHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query, fieldErrs := parseQuery(params.Get("q"), params.Get("type"), params.Get("ambulance"))
	origin, originErrs := parseOrigin(params.Get("lat"), params.Get("lng"))
	fieldErrs = append(fieldErrs, originErrs...)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid hospital query", fieldErrs)
		return
	}

	if city := params.Get("city"); city != "" {
		h.listCity(w, r, city, query)
		return
	}

	var resp models.HospitalsResponse
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

func (h *HospitalHandler) listCity(w http.ResponseWriter, r *http.Request, city string, query hospital.Query) {
	hospitals, err := h.service.ByCity(r.Context(), city)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.HospitalsResponse{
		View: hospital.View{
			Hospitals: hospital.Apply(hospitals, nil, query),
			FetchedAt: time.Now(),
		},
	})
}

func parseQuery(text, typ, ambulance string) (hospital.Query, []models.FieldError) {
	var errs []models.FieldError
	query := hospital.Query{Text: text}

	if typ != "" {
		parsed, ok := hospital.ParseType(typ)
		if !ok {
			errs = append(errs, models.FieldError{Field: "type", Message: "must be all, Government or Private", Code: "INVALID"})
		}
		query.Type = parsed
	}

	if ambulance != "" {
		only, err := strconv.ParseBool(ambulance)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "ambulance", Message: "must be true or false", Code: "INVALID"})
		}
		query.AmbulanceOnly = only
	}

	return query, errs
}

// parseOrigin returns nil when neither lat nor lng is given.
func parseOrigin(lat, lng string) (*geo.Coordinate, []models.FieldError) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return nil, nil
	}

	var errs []models.FieldError
	latV, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be a number", Code: "INVALID"})
	}
	lngV, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lng", Message: "must be a number", Code: "INVALID"})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &geo.Coordinate{Lat: latV, Lon: lngV}, nil
}
