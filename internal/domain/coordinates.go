package domain

import (
	"fmt"
	"math"
)

// Coordinates closer than this on both axes are the same physical point.
// The optimizer echoes locations back with floating-point noise.
const CoordTolerance = 1e-6

// Geographic position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c LatLng) CoordsToList() []float64 { return []float64{c.Lng, c.Lat} }

// Key rounds to 6 decimals and is used to deduplicate the waypoint pool.
func (c LatLng) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// SamePoint reports whether a and b are within CoordTolerance on both axes.
func SamePoint(a, b LatLng) bool {
	return math.Abs(a.Lat-b.Lat) <= CoordTolerance && math.Abs(a.Lng-b.Lng) <= CoordTolerance
}

// Fixed origin and destination for every route of a session.
type DistributionCenter struct {
	Name     string
	Position LatLng
}
