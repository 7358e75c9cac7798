// Package emergency submits and tracks ambulance requests.
package emergency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/pkg/geo"
)

// Dispatch errors.
var (
	ErrOriginRequired       = errors.New("request origin could not be resolved")
	ErrPhoneRequired        = errors.New("contact phone is required")
	ErrInvalidEmergencyType = errors.New("invalid emergency type")
	ErrDuplicateRequest     = errors.New("server returned an already known request id")
	ErrMissingRequestID     = errors.New("server did not assign a request id")
)

// Type is the nature of the emergency.
type Type string

const (
	TypeGeneral   Type = "general"
	TypeCardiac   Type = "cardiac"
	TypeAccident  Type = "accident"
	TypeBreathing Type = "breathing"
	TypePregnancy Type = "pregnancy"
	TypeOther     Type = "other"
)

// TypeOption is a selectable emergency type with its display label.
type TypeOption struct {
	Type  Type   `json:"type"`
	Label string `json:"label"`
}

// Types returns the selectable emergency types in display order.
func Types() []TypeOption {
	return []TypeOption{
		{TypeGeneral, "General Emergency"},
		{TypeCardiac, "Cardiac / Heart"},
		{TypeAccident, "Accident / Trauma"},
		{TypeBreathing, "Breathing Difficulty"},
		{TypePregnancy, "Pregnancy Related"},
		{TypeOther, "Other"},
	}
}

// Valid reports whether t is a known emergency type.
func (t Type) Valid() bool {
	for _, opt := range Types() {
		if opt.Type == t {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a request.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusDispatched Status = "dispatched"
)

// Form is what the user enters.
type Form struct {
	PatientName string `json:"patient_name"`
	Phone       string `json:"phone"`
	Type        Type   `json:"emergency_type"`
	Notes       string `json:"notes,omitempty"`
}

// Validate checks the form. An empty type means TypeGeneral.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Phone) == "" {
		return ErrPhoneRequired
	}
	if f.Type != "" && !f.Type.Valid() {
		return ErrInvalidEmergencyType
	}
	return nil
}

// Request is an ambulance request as tracked by the client.
type Request struct {
	// ClientID is generated locally and unique per submission.
	ClientID string `json:"client_id"`

	// ID is assigned by the server once dispatched.
	ID string `json:"id,omitempty"`

	PatientName string       `json:"patient_name"`
	Phone       string       `json:"phone"`
	Type        Type         `json:"emergency_type"`
	Notes       string       `json:"notes,omitempty"`
	Origin      geo.Position `json:"origin"`

	// OriginFallback is true when the origin is the configured default
	// location rather than a live fix.
	OriginFallback bool `json:"origin_fallback"`

	Status Status `json:"status"`

	// ETAMinutes is reported by the server and copied as-is.
	ETAMinutes *int `json:"eta_minutes,omitempty"`

	RequestedAt  time.Time `json:"requested_at"`
	DispatchedAt time.Time `json:"dispatched_at,omitempty"`
}

// Submission is the payload sent to the dispatch service.
type Submission struct {
	ClientID    string
	Origin      geo.Coordinate
	PatientName string
	Phone       string
	Type        Type
	Notes       string
}

// Dispatch is the dispatch service's answer.
type Dispatch struct {
	ID         string
	Status     string
	ETAMinutes *int
	CreatedAt  time.Time
}

// Number is an emergency phone line.
type Number struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// EmergencyNumbers returns the national emergency lines.
func EmergencyNumbers() []Number {
	return []Number{
		{Name: "Ambulance", Number: "108"},
		{Name: "Emergency", Number: "112"},
		{Name: "Health Helpline", Number: "104"},
	}
}

// Provider defines the interface to the dispatch service.
type Provider interface {
	RequestAmbulance(ctx context.Context, sub Submission) (Dispatch, error)
}

// PositionSource resolves the origin when the caller has none.
// *location.Provider implements it.
type PositionSource interface {
	Current(ctx context.Context) (location.Fix, error)
}

// UserSource reports the signed-in user. *identity.Session implements it.
type UserSource interface {
	User() (identity.User, bool)
}

// Notifier is told about every dispatched request.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}
