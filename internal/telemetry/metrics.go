package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/carelens/carelens/internal/telemetry"

// ClientMetrics records outbound platform calls and workflow fallbacks.
type ClientMetrics struct {
	callDuration metric.Float64Histogram
	callTotal    metric.Int64Counter
	fallbacks    metric.Int64Counter
}

// NewClientMetrics creates the instruments on the global meter provider.
func NewClientMetrics() (*ClientMetrics, error) {
	meter := otel.Meter(meterName)

	callDuration, err := meter.Float64Histogram(
		"carelens.platform.call.duration",
		metric.WithDescription("Duration of platform API calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callTotal, err := meter.Int64Counter(
		"carelens.platform.call.total",
		metric.WithDescription("Total number of platform API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"carelens.workflow.fallback.total",
		metric.WithDescription("Number of times a workflow substituted a declared fallback"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	return &ClientMetrics{
		callDuration: callDuration,
		callTotal:    callTotal,
		fallbacks:    fallbacks,
	}, nil
}

// RecordCall records one platform call. status is the HTTP status, or 0 when
// no response was received.
func (m *ClientMetrics) RecordCall(ctx context.Context, operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.callDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.callTotal.Add(ctx, 1, attrs)
}

// RecordFallback records a workflow falling back, e.g. "location" or "hospital_catalog".
func (m *ClientMetrics) RecordFallback(ctx context.Context, workflow string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", workflow)))
}
