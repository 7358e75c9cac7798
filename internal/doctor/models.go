// Package doctor lists the doctor directory and edits a doctor's own
// profile.
package doctor

import (
	"errors"
	"fmt"
	"time"

	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/pkg/geo"
)

// Service errors.
var (
	ErrDirectoryUnavailable = errors.New("doctor directory unavailable")
	ErrInvalidProfile       = errors.New("invalid doctor profile")

	// ErrNotDoctor is returned when a non-doctor account reads or saves a
	// profile.
	ErrNotDoctor = fmt.Errorf("%w: only doctors have a profile", identity.ErrForbidden)
)

// Profile bounds.
const (
	MaxExperienceYears = 70
	MaxConsultationFee = 100000
)

// DefaultLanguages are used when a profile lists none.
var DefaultLanguages = []string{"English", "Tamil"}

// Specializations are the specialties offered when editing a profile.
var Specializations = []string{
	"General Medicine", "Cardiology", "Orthopedics", "Pediatrics", "Gynecology",
	"Dermatology", "ENT", "Ophthalmology", "Neurology", "Psychiatry",
	"Oncology", "Pulmonology", "Gastroenterology", "Urology", "Nephrology",
}

// Doctor is one directory entry.
type Doctor struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	Specialization  string          `json:"specialization"`
	Qualification   string          `json:"qualification"`
	ExperienceYears int             `json:"experience_years"`
	HospitalName    string          `json:"hospital_name,omitempty"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Coordinate      *geo.Coordinate `json:"coordinate,omitempty"`
	Phone           string          `json:"phone"`
	Available       bool            `json:"available"`
	ConsultationFee *int            `json:"consultation_fee,omitempty"`
	Languages       []string        `json:"languages"`
	Rating          float64         `json:"rating,omitempty"`
	ReviewsCount    int             `json:"reviews_count"`
}

// RankedDoctor is a doctor with the distance from the query origin. It is
// nil when the view has no origin or the doctor has no coordinate.
type RankedDoctor struct {
	Doctor
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Query narrows the directory. The zero value matches everything.
type Query struct {
	// Text is matched case-insensitively against name, specialization,
	// hospital and city.
	Text string `json:"q,omitempty"`

	// Specialization keeps only doctors with this specialization.
	Specialization string `json:"specialization,omitempty"`
}

// View is the result of a directory request.
type View struct {
	Doctors []RankedDoctor `json:"doctors"`

	// Ranked is true when the doctors are sorted by distance.
	Ranked bool `json:"ranked"`

	// Degraded is true when the nearby search failed and the unranked
	// directory was substituted.
	Degraded bool `json:"degraded"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Profile is what a doctor edits about themselves. Name and email come
// from the account.
type Profile struct {
	Specialization  string          `json:"specialization"`
	Qualification   string          `json:"qualification"`
	ExperienceYears int             `json:"experience_years"`
	HospitalName    string          `json:"hospital_name,omitempty"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	Coordinate      *geo.Coordinate `json:"coordinate,omitempty"`
	Phone           string          `json:"phone"`
	Available       bool            `json:"available"`
	ConsultationFee *int            `json:"consultation_fee,omitempty"`
	Languages       []string        `json:"languages"`
}

// FieldError describes one invalid field of a Profile.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a Profile.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s %s", ErrInvalidProfile, e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("%s: %d invalid fields", ErrInvalidProfile, len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidProfile
}
