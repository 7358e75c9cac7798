package bp

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Provider stores and lists readings for the signed-in user.
type Provider interface {
	// SubmitReading stores a validated reading and returns the stored record.
	SubmitReading(ctx context.Context, reading Reading) (Record, error)

	// ListRecords returns the user's stored records.
	ListRecords(ctx context.Context) ([]Record, error)
}

// ServiceConfig holds configuration for the blood pressure service.
type ServiceConfig struct {
	// Provider is the record store.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service records readings and builds history views. The status of every
// record it returns is derived with Classify, whatever the store reported.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new blood pressure service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Record validates and submits a reading. Invalid readings are rejected
// without contacting the store.
func (s *Service) Record(ctx context.Context, reading Reading) (Record, error) {
	if err := reading.Validate(); err != nil {
		return Record{}, err
	}

	rec, err := s.provider.SubmitReading(ctx, reading)
	if err != nil {
		return Record{}, fmt.Errorf("submit reading: %w", err)
	}
	rec.Status = Classify(rec.Systolic, rec.Diastolic)

	s.logger.Info().
		Str("record_id", rec.ID).
		Stringer("status", rec.Status).
		Msg("blood pressure reading recorded")

	return rec, nil
}

// History returns the user's records, newest first.
func (s *Service) History(ctx context.Context) ([]Record, error) {
	records, err := s.provider.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		out[i].Status = Classify(out[i].Systolic, out[i].Diastolic)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

// Trend charts the newest window records. A zero window uses
// DefaultTrendWindow.
func (s *Service) Trend(ctx context.Context, window int) (Trend, error) {
	if window < 0 {
		return Trend{}, ErrInvalidWindow
	}
	if window == 0 {
		window = DefaultTrendWindow
	}

	records, err := s.History(ctx)
	if err != nil {
		return Trend{}, err
	}
	return Summarize(records, window), nil
}
