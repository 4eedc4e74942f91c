package domain

import (
	"fmt"
	"strings"
)

// Stop entry of a planned route record.
type PlannedStop struct {
	Lat    float64
	Lng    float64
	Name   string
	Orders []Order
}

// Represents a finalized route handed to the logistics backend.
// Weight, distance (km), duration (h) and load are rounded to 2 decimals.
type PlannedRoute struct {
	RouteNumber string
	Geometry    string
	Stops       []PlannedStop
	OrderCount  string
	Weight      float64
	DistanceKm  float64
	DurationH   float64
	LoadPercent float64
	StopList    string
}

// NewPlannedRoute packages a route and its summary into a planned route record.
func NewPlannedRoute(r *Route, s Summary, pool map[string]*Waypoint) PlannedRoute {
	stops := make([]PlannedStop, 0, len(r.WaypointIDs))
	var list strings.Builder
	for _, id := range r.WaypointIDs {
		wp, ok := pool[id]
		if !ok {
			continue
		}
		stops = append(stops, PlannedStop{
			Lat:    wp.Position.Lat,
			Lng:    wp.Position.Lng,
			Name:   wp.Name,
			Orders: append([]Order(nil), wp.Orders...),
		})

		label := wp.Name
		if label == "" {
			label = fmt.Sprintf("%.5f, %.5f", wp.Position.Lat, wp.Position.Lng)
		}
		list.WriteString("<li>" + label + "</li>")
	}

	return PlannedRoute{
		RouteNumber: r.Name,
		Geometry:    r.Geometry,
		Stops:       stops,
		OrderCount:  fmt.Sprintf("%d", s.OrderCount),
		Weight:      Round2(s.TotalWeight),
		DistanceKm:  Round2(s.DistanceMeters / 1000),
		DurationH:   Round2(s.DurationHours),
		LoadPercent: Round2(s.TotalLoadPercent),
		StopList:    list.String(),
	}
}
