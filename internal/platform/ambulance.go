package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/carelens/carelens/internal/emergency"
)

type ambulanceRequestWire struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	PatientName   string  `json:"patient_name"`
	Phone         string  `json:"phone"`
	EmergencyType string  `json:"emergency_type"`
	Notes         *string `json:"notes"`
}

type ambulanceResponseWire struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	ETAMinutes *int      `json:"eta_minutes"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestAmbulance implements emergency.Provider. The client id is sent as
// the Idempotency-Key header.
func (c *Client) RequestAmbulance(ctx context.Context, sub emergency.Submission) (emergency.Dispatch, error) {
	body := ambulanceRequestWire{
		Lat:           sub.Origin.Lat,
		Lng:           sub.Origin.Lon,
		PatientName:   sub.PatientName,
		Phone:         sub.Phone,
		EmergencyType: string(sub.Type),
	}
	if sub.Notes != "" {
		body.Notes = &sub.Notes
	}

	var resp ambulanceResponseWire
	err := c.do(ctx, call{
		op:     "ambulance_request",
		method: http.MethodPost,
		path:   "/ambulance/request",
		body:   body,
		auth:   true,
		header: http.Header{"Idempotency-Key": {sub.ClientID}},
	}, &resp)
	if err != nil {
		return emergency.Dispatch{}, err
	}

	return emergency.Dispatch{
		ID:         resp.ID,
		Status:     resp.Status,
		ETAMinutes: resp.ETAMinutes,
		CreatedAt:  resp.CreatedAt,
	}, nil
}

var _ emergency.Provider = (*Client)(nil)
