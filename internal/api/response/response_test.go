package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/api/middleware"
	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
)

// serve runs fn behind the RequestID middleware so the context carries an id.
func serve(t *testing.T, path string, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.Header.Set("X-Request-Id", "req_fixed")
	middleware.RequestID(fn).ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestJSON(t *testing.T) {
	rec := serve(t, "/v1/ops/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"message": "hello"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"hello"}`, rec.Body.String())
}

func TestJSON_NilData(t *testing.T) {
	rec := serve(t, "/", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, nil)
	})
	assert.Empty(t, rec.Body.String())
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusOK, nil)
	assert.Empty(t, rec.Header().Get("X-Request-Id"))
}

func TestCreated(t *testing.T) {
	rec := serve(t, "/v1/bp/records", func(w http.ResponseWriter, r *http.Request) {
		response.Created(w, r, "/v1/bp/records/r1", map[string]string{"id": "r1"})
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/bp/records/r1", rec.Header().Get("Location"))
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
}

func TestNoContent(t *testing.T) {
	rec := serve(t, "/v1/session", response.NoContent)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
}

func TestBadRequest(t *testing.T) {
	rec := serve(t, "/v1/bp/records", func(w http.ResponseWriter, r *http.Request) {
		response.BadRequest(w, r, "invalid reading", []models.FieldError{{Field: "systolic", Message: "out of range"}})
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "req_fixed", p.TraceID)
	assert.Equal(t, "/v1/bp/records", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "systolic", p.Errors[0].Field)
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		typ    string
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "d") }, http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { response.Forbidden(w, r, "d") }, http.StatusForbidden, models.ProblemTypeForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "d") }, http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "d") }, http.StatusConflict, models.ProblemTypeConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "d") }, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "d") }, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, "/x", tt.write)
			assert.Equal(t, tt.status, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, "d", p.Detail)
			assert.Equal(t, "req_fixed", p.TraceID)
		})
	}
}
