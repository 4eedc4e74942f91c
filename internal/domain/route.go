package domain

// Display colors handed out to new routes by creation order.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#fffac8", "#800000",
}

// PaletteColor returns the color for the n-th created route.
func PaletteColor(n int) string {
	if n < 0 {
		n = 0
	}
	return Palette[n%len(Palette)]
}

// Minimum waypoints for a selection to create a route.
const MinSelectionWaypoints = 2

// A route with fewer waypoints than this is deleted.
const MinRouteWaypoints = 1

// Represents one vehicle's ordered stop sequence.
// WaypointIDs is the visiting order; Detours are manually inserted vias that
// shape the geometry without being stops.
type Route struct {
	ID              string
	Name            string
	Color           string
	WaypointIDs     []string
	Detours         []LatLng
	Geometry        string
	DistanceMeters  float64
	DurationSeconds float64
	Center          DistributionCenter
}

// Clone returns a deep copy of r.
func (r *Route) Clone() *Route {
	c := *r
	c.WaypointIDs = append([]string(nil), r.WaypointIDs...)
	c.Detours = append([]LatLng(nil), r.Detours...)
	return &c
}

// IndexOf returns the position of waypointID in the visiting order, or -1.
func (r *Route) IndexOf(waypointID string) int {
	for i, id := range r.WaypointIDs {
		if id == waypointID {
			return i
		}
	}
	return -1
}

// Contains reports whether waypointID is one of the route's stops.
func (r *Route) Contains(waypointID string) bool { return r.IndexOf(waypointID) >= 0 }

// Without returns the visiting order minus waypointID.
func (r *Route) Without(waypointID string) []string {
	out := make([]string, 0, len(r.WaypointIDs))
	for _, id := range r.WaypointIDs {
		if id != waypointID {
			out = append(out, id)
		}
	}
	return out
}

// MoveBefore returns a new visiting order with dragged placed at target's index.
// Both ids must be on the route.
func MoveBefore(order []string, dragged, target string) ([]string, bool) {
	from, to := -1, -1
	for i, id := range order {
		switch id {
		case dragged:
			from = i
		case target:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return nil, false
	}

	out := append([]string(nil), order...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{item}, out[to:]...)...)
	return out, true
}
