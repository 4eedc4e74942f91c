package services

import (
	"context"
	"errors"
	"fmt"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

var ErrInvalidObjective = errors.New("objective must be distance or time")

var errUnchanged = errors.New("unchanged")

// Reoptimize recomputes a route's visiting order for the given objective
// over center plus its current stops.
func (p *Planner) Reoptimize(ctx context.Context, rid string, mode ports.OptimizeMode) (*RouteResult, error) {
	if mode != ports.ModeDistance && mode != ports.ModeTime {
		return nil, ErrInvalidObjective
	}

	p.mu.Lock()

	r, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("reoptimize route %s: %w", rid, err)
	}

	ids := append([]string(nil), r.WaypointIDs...)
	t := p.beginLocked(ctx, []string{rid}, ids)
	points := p.payload(nil, p.positionsLocked(ids), false)
	p.mu.Unlock()

	res, err := p.optimize(t, points, mode)
	if err := p.settle(t, "reoptimize route", err, nil); err != nil {
		return nil, fmt.Errorf("reoptimize route %s: %w", rid, err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	applyPathLocked(r, res, orderBySteps(ids, p.positionOfLocked, res.Steps))
	return p.resultLocked(r), nil
}

// ReorderWaypointWithinRoute moves dragged to target's position right away and
// then refreshes the geometry with that order held fixed. The previous order
// comes back if the refresh fails.
func (p *Planner) ReorderWaypointWithinRoute(ctx context.Context, rid, dragged, target string) (*RouteResult, error) {
	return p.fixedEdit(ctx, rid, "reorder waypoint", func(r *domain.Route) (func(), error) {
		if !r.Contains(dragged) || !r.Contains(target) {
			return nil, domain.ErrWaypointNotFound
		}
		if dragged == target {
			return nil, errUnchanged
		}
		order, ok := domain.MoveBefore(r.WaypointIDs, dragged, target)
		if !ok {
			return nil, errUnchanged
		}

		prev := r.WaypointIDs
		r.WaypointIDs = order
		return func() { r.WaypointIDs = prev }, nil
	})
}

// InsertDetourPoint adds a via at index (0..len) of the route's detours.
func (p *Planner) InsertDetourPoint(ctx context.Context, rid string, index int, at domain.LatLng) (*RouteResult, error) {
	return p.fixedEdit(ctx, rid, "insert detour", func(r *domain.Route) (func(), error) {
		if index < 0 || index > len(r.Detours) {
			return nil, domain.ErrInvalidIndex
		}
		return insertDetourLocked(r, index, at)
	})
}

func insertDetourLocked(r *domain.Route, index int, at domain.LatLng) (func(), error) {
	prev := r.Detours
	next := make([]domain.LatLng, 0, len(prev)+1)
	next = append(next, prev[:index]...)
	next = append(next, at)
	next = append(next, prev[index:]...)
	r.Detours = next
	return func() { r.Detours = prev }, nil
}

// InsertDetourAtSegment adds a via for a drag on segment of the drawn path.
// Vias sit between the center and the first stop, so segments past them
// append at the end of the detour list.
func (p *Planner) InsertDetourAtSegment(ctx context.Context, rid string, segment int, at domain.LatLng) (*RouteResult, error) {
	if segment < 0 {
		return nil, fmt.Errorf("insert detour on route %s: %w", rid, domain.ErrInvalidIndex)
	}
	return p.fixedEdit(ctx, rid, "insert detour", func(r *domain.Route) (func(), error) {
		return insertDetourLocked(r, min(segment, len(r.Detours)), at)
	})
}

func (p *Planner) MoveDetourPoint(ctx context.Context, rid string, index int, at domain.LatLng) (*RouteResult, error) {
	return p.fixedEdit(ctx, rid, "move detour", func(r *domain.Route) (func(), error) {
		if index < 0 || index >= len(r.Detours) {
			return nil, domain.ErrInvalidIndex
		}

		prev := r.Detours
		next := append([]domain.LatLng(nil), prev...)
		next[index] = at
		r.Detours = next
		return func() { r.Detours = prev }, nil
	})
}

func (p *Planner) DeleteDetourPoint(ctx context.Context, rid string, index int) (*RouteResult, error) {
	return p.fixedEdit(ctx, rid, "delete detour", func(r *domain.Route) (func(), error) {
		if index < 0 || index >= len(r.Detours) {
			return nil, domain.ErrInvalidIndex
		}

		prev := r.Detours
		next := make([]domain.LatLng, 0, len(prev)-1)
		next = append(next, prev[:index]...)
		next = append(next, prev[index+1:]...)
		r.Detours = next
		return func() { r.Detours = prev }, nil
	})
}

// fixedEdit applies edit to the route under the lock, then asks the optimizer
// for geometry over center, detours, stops and center with the order fixed.
// Stops are never reordered by the response.
func (p *Planner) fixedEdit(ctx context.Context, rid, op string, edit func(r *domain.Route) (func(), error)) (*RouteResult, error) {
	p.mu.Lock()

	r, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("%s on route %s: %w", op, rid, err)
	}

	undo, err := edit(r)
	if errors.Is(err, errUnchanged) {
		defer p.mu.Unlock()
		return p.resultLocked(r), nil
	}
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("%s on route %s: %w", op, rid, err)
	}

	t := p.beginLocked(ctx, []string{rid}, r.WaypointIDs)
	points := p.payload(r.Detours, p.positionsLocked(r.WaypointIDs), true)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeFixed)
	if err := p.settle(t, op, err, undo); err != nil {
		return nil, fmt.Errorf("%s on route %s: %w", op, rid, err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	applyPathLocked(r, res, nil)
	return p.resultLocked(r), nil
}
