package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/bp"
)

// BPHandler serves blood pressure records.
type BPHandler struct {
	service *bp.Service
	logger  zerolog.Logger
}

// NewBPHandler creates a new BPHandler.
func NewBPHandler(service *bp.Service, logger zerolog.Logger) *BPHandler {
	return &BPHandler{service: service, logger: logger}
}

// List handles GET /v1/bp/records.
func (h *BPHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if records == nil {
		records = []bp.Record{}
	}
	response.JSON(w, r, http.StatusOK, models.RecordsResponse{Records: records})
}

// Create handles POST /v1/bp/records.
func (h *BPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var reading bp.Reading
	if !decodeJSON(w, r, &reading) {
		return
	}

	record, err := h.service.Record(r.Context(), reading)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "", record)
}

// Trend handles GET /v1/bp/trend?window=N. A missing window uses the default.
func (h *BPHandler) Trend(w http.ResponseWriter, r *http.Request) {
	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "invalid trend window", []models.FieldError{
				{Field: "window", Message: "must be an integer", Code: "INVALID"},
			})
			return
		}
		window = n
	}

	trend, err := h.service.Trend(r.Context(), window)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, trend)
}

// ReferenceRanges handles GET /v1/bp/reference-ranges.
func (h *BPHandler) ReferenceRanges(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.ReferenceRangesResponse{Ranges: bp.ReferenceRanges()})
}
