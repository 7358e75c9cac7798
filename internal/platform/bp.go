package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/carelens/carelens/internal/bp"
)

type readingWire struct {
	Systolic  int     `json:"systolic"`
	Diastolic int     `json:"diastolic"`
	Pulse     *int    `json:"pulse"`
	Notes     *string `json:"notes"`
}

type recordWire struct {
	ID         string    `json:"id"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	Pulse      *int      `json:"pulse"`
	Notes      *string   `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
	Status     string    `json:"status"`
}

// toRecord converts a stored record. The backend's status is dropped;
// bp.Service derives it with bp.Classify.
func (r recordWire) toRecord() bp.Record {
	rec := bp.Record{
		ID:         r.ID,
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
		RecordedAt: r.RecordedAt,
		Status:     bp.Classify(r.Systolic, r.Diastolic),
	}
	if r.Notes != nil {
		rec.Notes = *r.Notes
	}
	return rec
}

// SubmitReading implements bp.Provider.
func (c *Client) SubmitReading(ctx context.Context, reading bp.Reading) (bp.Record, error) {
	body := readingWire{
		Systolic:  reading.Systolic,
		Diastolic: reading.Diastolic,
		Pulse:     reading.Pulse,
	}
	if reading.Notes != "" {
		body.Notes = &reading.Notes
	}

	var resp recordWire
	err := c.do(ctx, call{
		op:     "bp_record",
		method: http.MethodPost,
		path:   "/bp/record",
		body:   body,
		auth:   true,
	}, &resp)
	if err != nil {
		return bp.Record{}, err
	}
	return resp.toRecord(), nil
}

// ListRecords implements bp.Provider.
func (c *Client) ListRecords(ctx context.Context) ([]bp.Record, error) {
	var resp []recordWire
	err := c.do(ctx, call{
		op:     "bp_records",
		method: http.MethodGet,
		path:   "/bp/records",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	records := make([]bp.Record, 0, len(resp))
	for _, r := range resp {
		records = append(records, r.toRecord())
	}
	return records, nil
}

var _ bp.Provider = (*Client)(nil)
