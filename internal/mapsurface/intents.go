package mapsurface

import (
	"context"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"

	"github.com/paulmach/orb"
)

// Selection is a finished polygon gesture.
type Selection struct {
	Polygon orb.Polygon
	Mode    services.SelectMode
	Name    string
	Color   string
	// Set when an existing route's polygon was edited.
	RouteID string
}

// IntentSink receives the intents the surface produces.
type IntentSink interface {
	SelectionCompleted(ctx context.Context, s Selection) (*services.RouteResult, error)
	SelectionEdited(ctx context.Context, s Selection) (*services.RouteResult, error)
	InsertDetour(ctx context.Context, routeID string, index int, at domain.LatLng) (*services.RouteResult, error)
}

var _ IntentSink = PlannerSink{}

// PlannerSink forwards intents to a planning session.
type PlannerSink struct {
	Planner *services.Planner
}

func (s PlannerSink) SelectionCompleted(ctx context.Context, sel Selection) (*services.RouteResult, error) {
	return s.Planner.SelectWaypointsByRegion(ctx, sel.Polygon, services.SelectOptions{
		Mode:  sel.Mode,
		Name:  sel.Name,
		Color: sel.Color,
	})
}

func (s PlannerSink) SelectionEdited(ctx context.Context, sel Selection) (*services.RouteResult, error) {
	return s.Planner.ReselectRouteRegion(ctx, sel.RouteID, sel.Polygon)
}

func (s PlannerSink) InsertDetour(ctx context.Context, routeID string, index int, at domain.LatLng) (*services.RouteResult, error) {
	return s.Planner.InsertDetourAtSegment(ctx, routeID, index, at)
}
