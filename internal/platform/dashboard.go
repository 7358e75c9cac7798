package platform

import (
	"context"
	"net/http"

	"github.com/carelens/carelens/internal/bp"
)

// DashboardStats summarises the user's activity.
type DashboardStats struct {
	BPReadings      int        `json:"bp_readings"`
	AIConsultations int        `json:"ai_consultations"`
	LatestBP        *bp.Record `json:"latest_bp,omitempty"`
}

type dashboardWire struct {
	BPReadings      int         `json:"bp_readings"`
	AIConsultations int         `json:"ai_consultations"`
	LatestBP        *recordWire `json:"latest_bp"`
}

// DashboardStats fetches the dashboard counters.
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var resp dashboardWire
	err := c.do(ctx, call{
		op:     "dashboard_stats",
		method: http.MethodGet,
		path:   "/dashboard/stats",
		auth:   true,
	}, &resp)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		BPReadings:      resp.BPReadings,
		AIConsultations: resp.AIConsultations,
	}
	if resp.LatestBP != nil {
		rec := resp.LatestBP.toRecord()
		stats.LatestBP = &rec
	}
	return stats, nil
}
