// Package hospital filters and ranks the hospital catalog.
package hospital

import (
	"errors"
	"time"

	"github.com/carelens/carelens/pkg/geo"
)

// Service errors.
var (
	ErrCatalogUnavailable = errors.New("hospital catalog unavailable")
	ErrEmptyCity          = errors.New("city is required")
)

// Type is the kind of facility.
type Type string

const (
	TypeAll        Type = "all"
	TypeGovernment Type = "Government"
	TypePrivate    Type = "Private"
)

// Hospital is one catalog entry. Catalog snapshots are never mutated.
type Hospital struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Address     string         `json:"address,omitempty"`
	Coordinate  geo.Coordinate `json:"coordinate"`
	Phone       string         `json:"phone,omitempty"`
	Emergency   bool           `json:"emergency"`
	Ambulance   bool           `json:"ambulance"`
	Specialties []string       `json:"specialties"`
	Rating      float64        `json:"rating,omitempty"`
	Beds        *int           `json:"beds,omitempty"`
}

// RankedHospital is a hospital with its distance from the query origin.
// DistanceKm is nil when the view has no origin.
type RankedHospital struct {
	Hospital
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Query holds the user's filter selections. The zero value matches
// everything.
type Query struct {
	// Text is matched case-insensitively against name, city and specialties.
	Text string `json:"q,omitempty"`

	// Type restricts the facility type. Empty or TypeAll disables it.
	Type Type `json:"type,omitempty"`

	// AmbulanceOnly keeps only hospitals with an ambulance.
	AmbulanceOnly bool `json:"ambulance,omitempty"`
}

// View is the result of a discovery request.
type View struct {
	Hospitals []RankedHospital `json:"hospitals"`

	// Ranked is true when the hospitals are sorted by distance.
	Ranked bool `json:"ranked"`

	// Degraded is true when the nearby search failed and the unranked full
	// catalog was substituted.
	Degraded bool `json:"degraded"`

	// Stale is true when the catalog came from an expired cache entry.
	Stale bool `json:"stale"`

	FetchedAt time.Time `json:"fetched_at"`
}
