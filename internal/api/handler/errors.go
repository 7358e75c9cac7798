package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/middleware"
	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/bp"
	"github.com/carelens/carelens/internal/chat"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/platform"
	"github.com/carelens/carelens/internal/provider/resilience"
	"github.com/carelens/carelens/pkg/geo"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// decodeJSON decodes the request body into v, writing a 400 on failure.
// An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	response.BadRequest(w, r, "invalid JSON body", nil)
	return false
}

// writeError maps a workflow error to a problem response. Unknown errors
// are logged and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var validation *bp.ValidationError
	var profileErr *doctor.ValidationError
	switch {
	case errors.As(err, &validation):
		fields := make([]models.FieldError, len(validation.Fields))
		for i, f := range validation.Fields {
			fields[i] = models.FieldError{Field: f.Field, Message: f.Message, Code: "OUT_OF_RANGE"}
		}
		response.BadRequest(w, r, "invalid blood pressure reading", fields)
	case errors.As(err, &profileErr):
		fields := make([]models.FieldError, len(profileErr.Fields))
		for i, f := range profileErr.Fields {
			fields[i] = models.FieldError{Field: f.Field, Message: f.Message, Code: "INVALID"}
		}
		response.BadRequest(w, r, "invalid doctor profile", fields)

	case errors.Is(err, geo.ErrLatitudeOutOfRange):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "lat", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"}})
	case errors.Is(err, geo.ErrLongitudeOutOfRange):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "lng", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"}})

	case errors.Is(err, emergency.ErrPhoneRequired):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "phone", Message: "required", Code: "REQUIRED"}})
	case errors.Is(err, emergency.ErrInvalidEmergencyType):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "emergency_type", Message: "unknown emergency type", Code: "INVALID"}})
	case errors.Is(err, chat.ErrEmptyMessage):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "message", Message: "required", Code: "REQUIRED"}})
	case errors.Is(err, chat.ErrUnsupportedLanguage):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "language", Message: "unsupported language", Code: "INVALID"}})
	case errors.Is(err, chat.ErrSessionIDRequired):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "session_id", Message: "required", Code: "REQUIRED"}})
	case errors.Is(err, bp.ErrInvalidWindow):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "window", Message: "must not be negative", Code: "OUT_OF_RANGE"}})
	case errors.Is(err, hospital.ErrEmptyCity):
		response.BadRequest(w, r, err.Error(), []models.FieldError{{Field: "city", Message: "required", Code: "REQUIRED"}})
	case errors.Is(err, platform.ErrBadRequest):
		response.BadRequest(w, r, apiDetail(err), nil)

	case errors.Is(err, doctor.ErrNotDoctor):
		response.Forbidden(w, r, "only doctor accounts have a profile")
	case errors.Is(err, identity.ErrSessionExpired):
		response.Unauthorized(w, r, "session has expired, sign in again")
	case errors.Is(err, identity.ErrForbidden):
		response.Forbidden(w, r, "not allowed for this account")
	case errors.Is(err, identity.ErrNotAuthenticated):
		response.Unauthorized(w, r, "sign in required")

	case errors.Is(err, platform.ErrNotFound):
		response.NotFound(w, r, apiDetail(err))

	case errors.Is(err, chat.ErrExchangeInFlight):
		response.Conflict(w, r, "a message is already being answered")
	case errors.Is(err, chat.ErrExchangeDiscarded), errors.Is(err, chat.ErrClosed):
		response.Conflict(w, r, "the conversation was reset")
	case errors.Is(err, emergency.ErrDuplicateRequest):
		response.Conflict(w, r, "the dispatch service returned a request that is already known")

	case errors.Is(err, emergency.ErrOriginRequired):
		response.ServiceUnavailable(w, r, "the pickup location could not be determined")
	case errors.Is(err, hospital.ErrCatalogUnavailable),
		errors.Is(err, doctor.ErrDirectoryUnavailable),
		errors.Is(err, platform.ErrUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, emergency.ErrMissingRequestID):
		response.ServiceUnavailable(w, r, "the CareLens service is unavailable, try again shortly")

	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// apiDetail returns the backend's detail message when err carries one.
func apiDetail(err error) string {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
