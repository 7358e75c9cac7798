// Package location acquires the device position and applies the fallback
// policy used by hospital discovery and emergency dispatch.
package location

import (
	"context"
	"errors"

	"github.com/carelens/carelens/pkg/geo"
)

// Locator errors. A Locator reports one of these (possibly wrapped) when the
// platform cannot produce a position.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// ErrNoPosition is returned by Current when the live read failed and no
// fallback place is configured.
var ErrNoPosition = errors.New("no position available")

// Locator is the platform geolocation capability.
type Locator interface {
	Locate(ctx context.Context) (geo.Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (geo.Position, error)

// Locate calls f(ctx).
func (f LocatorFunc) Locate(ctx context.Context) (geo.Position, error) {
	return f(ctx)
}

// Source describes where a Fix came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// Place is a named coordinate used as a fallback, e.g. the default city.
type Place struct {
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// IsZero reports whether the place is unset.
func (p Place) IsZero() bool {
	return p.Name == "" && p.Coordinate == (geo.Coordinate{})
}

// Fix is the result of an acquisition: a position plus its provenance.
type Fix struct {
	Position geo.Position `json:"position"`
	Source   Source       `json:"source"`

	// Label is a human-readable description for display, e.g.
	// "Your Location (9.17°N, 77.87°E)" or "Kovilpatti, Tamil Nadu (Default)".
	Label string `json:"label"`

	// Reason is set for fallback fixes and explains why the live read failed.
	Reason string `json:"reason,omitempty"`
}

// IsFallback reports whether the fix is fallback-derived.
func (f Fix) IsFallback() bool {
	return f.Source == SourceFallback
}
