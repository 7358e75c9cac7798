// Package handler provides HTTP handlers for the CareLens bridge.
package handler

import (
	"net/http"
	"time"

	"github.com/carelens/carelens/internal/api/models"
	"github.com/carelens/carelens/internal/api/response"
	"github.com/carelens/carelens/internal/provider/resilience"
)

// HealthReporter reports the backend circuit breaker. *platform.Client
// implements it; ok is false when the client has no resilience layer.
type HealthReporter interface {
	Health() (resilience.Health, bool)
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	backend   HealthReporter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, backend HealthReporter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		backend:   backend,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// Providers handles GET /v1/ops/providers - backend breaker state.
// The response is 200 even when degraded; the body carries the status.
func (h *OpsHandler) Providers(w http.ResponseWriter, r *http.Request) {
	status := models.ProvidersStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}

	if h.backend != nil {
		if health, ok := h.backend.Health(); ok {
			ps := providerStatus(health)
			status.Providers = append(status.Providers, ps)
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(health resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      health.Name,
		Status:        models.HealthStatusOK,
		BreakerState:  health.State,
		Requests:      health.Requests,
		Failures:      health.Failures,
		LastSuccessAt: models.TimestampPtr(health.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(health.LastFailureAt),
	}
	if !health.IsHealthy() {
		ps.Status = models.HealthStatusFail
		if health.State == "half-open" {
			ps.Status = models.HealthStatusDegraded
		}
	}
	if health.LastError != "" {
		msg := health.LastError
		ps.Message = &msg
	}
	return ps
}
