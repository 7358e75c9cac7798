package location

import (
	"context"
	"time"

	"github.com/carelens/carelens/pkg/geo"
)

// StaticLocator always reports the same coordinate, stamped with the time of
// the read. Used for fixed installations where the site is known.
type StaticLocator struct {
	Coordinate geo.Coordinate
	Accuracy   float64
}

// Locate returns the configured coordinate.
func (l StaticLocator) Locate(ctx context.Context) (geo.Position, error) {
	if err := ctx.Err(); err != nil {
		return geo.Position{}, err
	}
	pos := geo.Position{Coordinate: l.Coordinate, AcquiredAt: time.Now()}
	if l.Accuracy > 0 {
		pos = pos.WithAccuracy(l.Accuracy)
	}
	return pos, nil
}

// NoLocator is used when the host has no geolocation capability.
type NoLocator struct{}

// Locate always fails with ErrUnavailable.
func (NoLocator) Locate(context.Context) (geo.Position, error) {
	return geo.Position{}, ErrUnavailable
}
