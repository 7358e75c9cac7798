// Package geo provides geographic coordinates, positions and great-circle
// distance helpers shared by the location, hospital and emergency packages.
package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Coordinate validation errors.
var (
	ErrLatitudeOutOfRange  = errors.New("latitude out of range [-90, 90]")
	ErrLongitudeOutOfRange = errors.New("longitude out of range [-180, 180]")
)

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Validate checks that the coordinate lies on the globe.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrLatitudeOutOfRange, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrLongitudeOutOfRange, c.Lon)
	}
	return nil
}

// String formats the coordinate with hemisphere suffixes, e.g. "9.17°N, 77.87°E".
func (c Coordinate) String() string {
	ns, ew := "N", "E"
	if c.Lat < 0 {
		ns = "S"
	}
	if c.Lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s, %.2f°%s", math.Abs(c.Lat), ns, math.Abs(c.Lon), ew)
}

// Position is a coordinate observed at a point in time.
// Positions are values; a newer acquisition produces a new Position.
type Position struct {
	Coordinate

	// Accuracy is the reported horizontal accuracy in meters, if known.
	Accuracy *float64 `json:"accuracy,omitempty"`

	// AcquiredAt is when the position was observed.
	AcquiredAt time.Time `json:"acquiredAt"`
}

// NewPosition creates a position for the coordinate acquired at the given time.
func NewPosition(lat, lon float64, acquiredAt time.Time) Position {
	return Position{
		Coordinate: Coordinate{Lat: lat, Lon: lon},
		AcquiredAt: acquiredAt,
	}
}

// WithAccuracy returns a copy of p with the accuracy set.
func (p Position) WithAccuracy(meters float64) Position {
	p.Accuracy = &meters
	return p
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// RoundKm rounds a distance to one decimal place. Negative inputs clamp to 0.
func RoundKm(km float64) float64 {
	if km <= 0 {
		return 0
	}
	return math.Round(km*10) / 10
}
