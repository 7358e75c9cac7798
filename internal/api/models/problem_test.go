package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_1").
		WithDetail("systolic out of range").
		WithInstance("/v1/bp/records").
		WithErrors([]models.FieldError{{Field: "systolic", Message: "must be between 60 and 260", Code: "OUT_OF_RANGE"}})

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "systolic out of range", p.Detail)
	assert.Equal(t, "/v1/bp/records", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "OUT_OF_RANGE", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "phone", Message: "required"},
	}).WithInstance("/v1/emergency/requests")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var got models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Validation error", got.Title)
	assert.Equal(t, "/v1/emergency/requests", got.Instance)
	assert.Equal(t, "req_test123", got.TraceID)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "phone", got.Errors[0].Field)
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		p      *models.Problem
		typ    string
		title  string
		status int
	}{
		{"unauthorized", models.NewUnauthorized("r", "d"), models.ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized},
		{"forbidden", models.NewForbidden("r", "d"), models.ProblemTypeForbidden, "Forbidden", http.StatusForbidden},
		{"not found", models.NewNotFound("r", "d"), models.ProblemTypeNotFound, "Not found", http.StatusNotFound},
		{"conflict", models.NewConflict("r", "d"), models.ProblemTypeConflict, "Conflict", http.StatusConflict},
		{"too many", models.NewTooManyRequests("r", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("r", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("r", "d"), models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.p.Type)
			assert.Equal(t, tt.title, tt.p.Title)
			assert.Equal(t, tt.status, tt.p.Status)
			assert.Equal(t, "d", tt.p.Detail)
			assert.Equal(t, "r", tt.p.TraceID)
		})
	}
}
