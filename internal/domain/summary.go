package domain

import "math"

// Reference to an order listed in a route summary.
type OrderRef struct {
	OrderID    string
	ClientName string
}

// Derived aggregates for a Route. A Summary is never stored on its own;
// it is always recomputed from the route and its waypoints.
type Summary struct {
	RouteID          string
	Orders           []OrderRef
	OrderCount       int
	TotalWeight      float64
	TotalLoadPercent float64
	DistanceMeters   float64
	DurationHours    float64
}

// Summarize aggregates the orders of the route's waypoints, looked up in pool.
// Waypoint ids missing from pool are skipped.
func Summarize(r *Route, pool map[string]*Waypoint) Summary {
	s := Summary{
		RouteID:        r.ID,
		Orders:         []OrderRef{},
		DistanceMeters: r.DistanceMeters,
		DurationHours:  r.DurationSeconds / 3600,
	}

	var load float64
	for _, id := range r.WaypointIDs {
		wp, ok := pool[id]
		if !ok {
			continue
		}
		for _, o := range wp.Orders {
			name := o.ClientName
			if name == "" {
				name = "Sin nombre"
			}
			s.Orders = append(s.Orders, OrderRef{OrderID: o.OrderID, ClientName: name})
			s.TotalWeight += o.Weight
			load += o.LoadPercent
		}
	}

	s.OrderCount = len(s.Orders)
	s.TotalLoadPercent = Round2(load)
	return s
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
