package optimizer

import (
	"context"
	"fmt"
	"sync"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

var _ ports.Optimizer = (*MockOptimizer)(nil)

type MockCall struct {
	Points []domain.LatLng
	Mode   ports.OptimizeMode
}

// MockOptimizer is a deterministic stand-in for the external optimizer.
// The first point is the start; a trailing copy of it is the end; every
// point in between comes back as a job step.
type MockOptimizer struct {
	// Return job steps in reverse order for distance/time modes.
	Reverse bool
	// Added to every echoed coordinate.
	Jitter float64
	// Extra job step that matches nothing.
	Phantom *domain.LatLng
	// Returned instead of a result when set.
	Err error
	// When set, every call waits for a receive (or ctx cancellation).
	Block chan struct{}
	// When set, receives the call number as each call starts.
	Started chan int

	MetersPerLeg  float64
	SecondsPerLeg float64

	mu    sync.Mutex
	calls []MockCall
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{MetersPerLeg: 1000, SecondsPerLeg: 120}
}

func (m *MockOptimizer) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func (m *MockOptimizer) Optimize(ctx context.Context, points []domain.LatLng, mode ports.OptimizeMode) (*ports.OptimizeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Points: append([]domain.LatLng(nil), points...), Mode: mode})
	n := len(m.calls)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- n
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, fmt.Errorf("optimize %s: %w: %w", mode, domain.ErrOptimizationFailure, m.Err)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("optimize %s: %w: need at least 2 points", mode, domain.ErrOptimizationFailure)
	}

	start := points[0]
	jobs := points[1:]
	closed := len(jobs) > 1 && jobs[len(jobs)-1] == start
	if closed {
		jobs = jobs[:len(jobs)-1]
	}

	ordered := append([]domain.LatLng(nil), jobs...)
	if m.Reverse && mode != ports.ModeFixed {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	steps := []ports.Step{{Type: "start", Location: start}}
	for i, p := range ordered {
		id := i
		steps = append(steps, ports.Step{
			Type:     ports.StepTypeJob,
			Location: domain.LatLng{Lat: p.Lat + m.Jitter, Lng: p.Lng - m.Jitter},
			JobID:    &id,
		})
	}
	if m.Phantom != nil {
		steps = append(steps, ports.Step{Type: ports.StepTypeJob, Location: *m.Phantom})
	}
	if closed {
		steps = append(steps, ports.Step{Type: "end", Location: start})
	}

	legs := float64(len(points) - 1)
	return &ports.OptimizeResult{
		Geometry:        fmt.Sprintf("mock-%s-%d", mode, len(points)),
		DistanceMeters:  legs * m.MetersPerLeg,
		DurationSeconds: legs * m.SecondsPerLeg,
		Steps:           steps,
	}, nil
}
