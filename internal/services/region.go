package services

import (
	"errors"

	"route-planning-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var ErrInvalidRegion = errors.New("region must be a polygon with at least 3 vertices")

// PolygonFromLatLngs builds a closed polygon from drawn vertices.
func PolygonFromLatLngs(vertices []domain.LatLng) (orb.Polygon, error) {
	if len(vertices) < 3 {
		return nil, ErrInvalidRegion
	}

	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, ErrInvalidRegion
	}
	return orb.Polygon{ring}, nil
}

// ValidateRegion checks the outer ring of an externally supplied polygon.
func ValidateRegion(poly orb.Polygon) error {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return ErrInvalidRegion
	}
	return nil
}

// inRegion reports whether p lies inside poly. Points on the boundary count as inside.
func inRegion(poly orb.Polygon, p domain.LatLng) bool {
	return planar.PolygonContains(poly, orb.Point{p.Lng, p.Lat})
}
