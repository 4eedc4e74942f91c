package ports

import (
	"context"
	"route-planning-service/internal/domain"
)

// Port: source of pending delivery stops.
type BacklogSource interface {
	FetchBacklog(ctx context.Context) ([]*domain.Waypoint, error)
}

// Port: persistence of finalized routes.
type PlannedRouteStore interface {
	SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) error
	// Replace a previously saved route that was reopened as a draft.
	UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) error
}

// Port: notification sent after a route is finalized.
type Notifier interface {
	NotifySales(ctx context.Context, r domain.PlannedRoute) error
}
