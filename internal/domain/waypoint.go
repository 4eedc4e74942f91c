package domain

// Represents a single customer order attached to a delivery stop.
type Order struct {
	OrderID      string
	ClientName   string
	Weight       float64
	LoadPercent  float64
	DeliveryDate string
	Comments     string
}

// Represents a delivery stop in the session pool.
// A Waypoint belongs to at most one Route; RouteID is empty while unassigned.
type Waypoint struct {
	ID       string
	Position LatLng
	Name     string
	Orders   []Order
	RouteID  string
}

// Assigned reports whether the waypoint currently belongs to a route.
func (w *Waypoint) Assigned() bool { return w.RouteID != "" }

// Clone returns a deep copy so snapshots never alias pool state.
func (w *Waypoint) Clone() *Waypoint {
	c := *w
	c.Orders = append([]Order(nil), w.Orders...)
	return &c
}
