package ports

import (
	"context"
	"route-planning-service/internal/domain"
)

// Persisted in-progress edit of a previously planned route.
type Draft struct {
	Name      string
	Geometry  string
	Waypoints []*domain.Waypoint
	Summary   domain.Summary
}

// Port: storage for one draft per key. Load returns domain.ErrNotFound when empty.
type DraftStore interface {
	LoadDraft(ctx context.Context, key string) (*Draft, error)
	SaveDraft(ctx context.Context, key string, d *Draft) error
	ClearDraft(ctx context.Context, key string) error
}
