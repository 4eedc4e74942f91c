package dto

import "github.com/paulmach/orb/geojson"

type LatLng struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type CenterRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat" validate:"latitude"`
	Lng  float64 `json:"lng" validate:"longitude"`
}

type CreateSessionRequest struct {
	Center *CenterRequest `json:"center,omitempty"`
}

// Region is given either as drawn vertices or as a GeoJSON polygon.
type Region struct {
	Points  []LatLng          `json:"points,omitempty" validate:"omitempty,min=3,dive"`
	Polygon *geojson.Geometry `json:"polygon,omitempty"`
}

type SelectionRequest struct {
	Points  []LatLng          `json:"points,omitempty" validate:"omitempty,min=3,dive"`
	Polygon *geojson.Geometry `json:"polygon,omitempty"`
	Mode    string            `json:"mode" validate:"omitempty,oneof=create edit"`
	Name    string            `json:"name"`
	Color   string            `json:"color" validate:"omitempty,hexcolor"`
}

type EraseRequest struct {
	WaypointIDs []string          `json:"waypoint_ids,omitempty"`
	Points      []LatLng          `json:"points,omitempty" validate:"omitempty,min=3,dive"`
	Polygon     *geojson.Geometry `json:"polygon,omitempty"`
}

type AssignRequest struct {
	WaypointID string `json:"waypoint_id" validate:"required"`
}

type ReorderRequest struct {
	DraggedID string `json:"dragged_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
}

type ReoptimizeRequest struct {
	Objective string `json:"objective" validate:"required,oneof=distance time"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

type DetourRequest struct {
	Index int     `json:"index" validate:"min=0"`
	Lat   float64 `json:"lat" validate:"latitude"`
	Lng   float64 `json:"lng" validate:"longitude"`
}

type SaveDraftRequest struct {
	RouteID string `json:"route_id,omitempty"`
}

type SurfaceEventRequest struct {
	Type     string   `json:"type" validate:"required"`
	At       *LatLng  `json:"at,omitempty"`
	RouteID  string   `json:"route_id,omitempty"`
	Index    int      `json:"index" validate:"min=0"`
	Name     string   `json:"name,omitempty"`
	Color    string   `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Vertices []LatLng `json:"vertices,omitempty" validate:"dive"`
}

type OrderResponse struct {
	OrderID      string  `json:"order_id"`
	ClientName   string  `json:"client_name"`
	Weight       float64 `json:"weight"`
	LoadPercent  float64 `json:"load_percent"`
	DeliveryDate string  `json:"delivery_date,omitempty"`
	Comments     string  `json:"comments,omitempty"`
}

type WaypointResponse struct {
	ID      string          `json:"id"`
	Lat     float64         `json:"lat"`
	Lng     float64         `json:"lng"`
	Name    string          `json:"name"`
	RouteID string          `json:"route_id,omitempty"`
	Orders  []OrderResponse `json:"orders"`
}

type OrderRefResponse struct {
	OrderID    string `json:"order_id"`
	ClientName string `json:"client_name"`
}

type SummaryResponse struct {
	Orders           []OrderRefResponse `json:"orders"`
	OrderCount       int                `json:"order_count"`
	TotalWeight      float64            `json:"total_weight"`
	TotalLoadPercent float64            `json:"total_load_percent"`
	DistanceMeters   float64            `json:"distance_meters"`
	DurationHours    float64            `json:"duration_hours"`
}

type RouteResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Color           string          `json:"color"`
	WaypointIDs     []string        `json:"waypoint_ids"`
	Detours         []LatLng        `json:"detours"`
	Geometry        string          `json:"geometry"`
	DistanceMeters  float64         `json:"distance_meters"`
	DurationSeconds float64         `json:"duration_seconds"`
	Pending         bool            `json:"pending"`
	Summary         SummaryResponse `json:"summary"`
}

type CenterResponse struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type DraftResponse struct {
	RouteID string `json:"route_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

type SessionResponse struct {
	ID        string             `json:"id"`
	Center    CenterResponse     `json:"center"`
	Waypoints []WaypointResponse `json:"waypoints"`
	Routes    []RouteResponse    `json:"routes"`
	Draft     *DraftResponse     `json:"draft,omitempty"`
}

type BacklogResponse struct {
	Added int `json:"added"`
}

type EraseResponse struct {
	DeletedRoutes []string `json:"deleted_routes"`
}

type UnassignResponse struct {
	Warning      string         `json:"warning,omitempty"`
	RouteDeleted bool           `json:"route_deleted"`
	Route        *RouteResponse `json:"route,omitempty"`
}

type PlannedRouteResponse struct {
	RouteNumber string  `json:"route_number"`
	OrderCount  string  `json:"order_count"`
	Stops       int     `json:"stops"`
	Weight      float64 `json:"weight"`
	DistanceKm  float64 `json:"distance_km"`
	DurationH   float64 `json:"duration_h"`
	LoadPercent float64 `json:"load_percent"`
}

type SurfaceStateResponse struct {
	Mode     string         `json:"mode"`
	Draw     string         `json:"draw"`
	Vertices []LatLng       `json:"vertices"`
	Drag     string         `json:"drag"`
	PanZoom  bool           `json:"pan_zoom"`
	Ghost    *LatLng        `json:"ghost,omitempty"`
	Route    *RouteResponse `json:"route,omitempty"`
}
