package ports

import (
	"context"
	"route-planning-service/internal/domain"
)

// Optimization objective, one per external endpoint.
type OptimizeMode string

const (
	ModeDistance OptimizeMode = "distance"
	ModeTime     OptimizeMode = "time"
	// Geometry-only refresh; the optimizer keeps the given point order.
	ModeFixed OptimizeMode = "fixed"
)

const StepTypeJob = "job"

// One step of the optimized path. JobID is set only when the optimizer echoes it.
type Step struct {
	Type     string
	Location domain.LatLng
	JobID    *int
}

// Ordered path, distance and duration returned by the optimizer.
type OptimizeResult struct {
	Geometry        string
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []Step
}

// Contract for the external route-optimization service.
type Optimizer interface {
	// Send a flat ordered point list (center first) and return the optimized path.
	// The caller matches returned job steps back to its own waypoints.
	Optimize(ctx context.Context, points []domain.LatLng, mode OptimizeMode) (*OptimizeResult, error)
}
