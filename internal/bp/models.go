// Package bp classifies blood-pressure readings and summarizes their trend.
package bp

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors.
var (
	ErrInvalidReading = errors.New("invalid blood pressure reading")
	ErrInvalidWindow  = errors.New("trend window must be positive")
)

// Accepted measurement ranges, inclusive.
const (
	MinSystolic  = 60
	MaxSystolic  = 260
	MinDiastolic = 30
	MaxDiastolic = 160
	MinPulse     = 30
	MaxPulse     = 220
)

// Reading is a measurement submitted by the user.
type Reading struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Pulse     *int   `json:"pulse,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// FieldError describes one invalid field of a Reading.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a Reading.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s %s", ErrInvalidReading, e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("%s: %d invalid fields", ErrInvalidReading, len(e.Fields))
}

// Unwrap lets errors.Is match ErrInvalidReading.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidReading
}

// Validate checks the reading against the accepted measurement ranges.
func (r Reading) Validate() error {
	var fields []FieldError
	if r.Systolic < MinSystolic || r.Systolic > MaxSystolic {
		fields = append(fields, FieldError{
			Field:   "systolic",
			Message: fmt.Sprintf("must be between %d and %d", MinSystolic, MaxSystolic),
		})
	}
	if r.Diastolic < MinDiastolic || r.Diastolic > MaxDiastolic {
		fields = append(fields, FieldError{
			Field:   "diastolic",
			Message: fmt.Sprintf("must be between %d and %d", MinDiastolic, MaxDiastolic),
		})
	}
	if r.Pulse != nil && (*r.Pulse < MinPulse || *r.Pulse > MaxPulse) {
		fields = append(fields, FieldError{
			Field:   "pulse",
			Message: fmt.Sprintf("must be between %d and %d", MinPulse, MaxPulse),
		})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Record is a stored reading. Records are immutable once stored.
type Record struct {
	ID         string    `json:"id"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	Pulse      *int      `json:"pulse,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	Status     Category  `json:"status"`
}

// Point is one entry of a trend chart.
type Point struct {
	RecordedAt time.Time `json:"recorded_at"`
	Systolic   int       `json:"systolic"`
	Diastolic  int       `json:"diastolic"`
	Category   Category  `json:"category"`
}

// Trend is a chronological series of points.
type Trend struct {
	Points []Point `json:"points"`
}
