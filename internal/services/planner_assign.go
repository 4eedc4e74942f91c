package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

type UnassignResult struct {
	// Set when there was nothing to do.
	Warning      string
	RouteDeleted bool
	// Nil when the route was deleted or the call was a no-op.
	Route *RouteResult
}

// UnassignWaypoint returns a waypoint to the pool. The route it leaves is
// deleted when it falls below domain.MinRouteWaypoints and re-optimized over
// center, the remaining stops, and center otherwise.
func (p *Planner) UnassignWaypoint(ctx context.Context, wid string) (*UnassignResult, error) {
	p.mu.Lock()

	wp, err := p.waypointLocked(wid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("unassign waypoint %s: %w", wid, err)
	}
	if !wp.Assigned() {
		p.mu.Unlock()
		return &UnassignResult{Warning: "waypoint is not assigned to a route"}, nil
	}

	r, err := p.routeLocked(wp.RouteID)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("unassign waypoint %s: %w", wid, err)
	}

	remaining := r.Without(wid)
	if len(remaining) < domain.MinRouteWaypoints {
		p.deleteRouteLocked(r.ID)
		wp.RouteID = ""
		p.mu.Unlock()
		return &UnassignResult{RouteDeleted: true}, nil
	}

	t := p.beginLocked(ctx, []string{r.ID}, []string{wid})
	points := p.payload(nil, p.positionsLocked(remaining), true)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeDistance)
	if err := p.settle(t, "unassign waypoint", err, nil); err != nil {
		return nil, fmt.Errorf("unassign waypoint %s: %w", wid, err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	wp.RouteID = ""
	applyPathLocked(r, res, orderBySteps(remaining, p.positionOfLocked, res.Steps))

	return &UnassignResult{Route: p.resultLocked(r)}, nil
}

// AssignWaypoint adds a waypoint to a route. A waypoint owned by another
// route is moved: both routes are re-optimized and applied together, or the
// source route is deleted if nothing is left on it.
func (p *Planner) AssignWaypoint(ctx context.Context, wid, rid string) (*RouteResult, error) {
	p.mu.Lock()

	target, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("assign waypoint %s: %w", wid, err)
	}
	wp, err := p.waypointLocked(wid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("assign waypoint %s: %w", wid, err)
	}
	if wp.RouteID == rid {
		defer p.mu.Unlock()
		return p.resultLocked(target), nil
	}

	var source *domain.Route
	var sourceRemaining []string
	routeIDs := []string{rid}
	if wp.Assigned() {
		if source, err = p.routeLocked(wp.RouteID); err != nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("assign waypoint %s: %w", wid, err)
		}
		sourceRemaining = source.Without(wid)
		routeIDs = append(routeIDs, source.ID)
	}

	targetIDs := append(append([]string(nil), target.WaypointIDs...), wid)
	t := p.beginLocked(ctx, routeIDs, []string{wid})
	targetPoints := p.payload(nil, p.positionsLocked(targetIDs), true)
	var sourcePoints []domain.LatLng
	if source != nil && len(sourceRemaining) >= domain.MinRouteWaypoints {
		sourcePoints = p.payload(nil, p.positionsLocked(sourceRemaining), true)
	}
	p.mu.Unlock()

	var sourceRes *ports.OptimizeResult
	if sourcePoints != nil {
		sourceRes, err = p.optimize(t, sourcePoints, ports.ModeDistance)
	}
	var targetRes *ports.OptimizeResult
	if err == nil {
		targetRes, err = p.optimize(t, targetPoints, ports.ModeDistance)
	}
	if err := p.settle(t, "assign waypoint", err, nil); err != nil {
		return nil, fmt.Errorf("assign waypoint %s: %w", wid, err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	if source != nil {
		if sourceRes == nil {
			p.deleteRouteLocked(source.ID)
		} else {
			applyPathLocked(source, sourceRes, orderBySteps(sourceRemaining, p.positionOfLocked, sourceRes.Steps))
		}
	}

	wp.RouteID = rid
	applyPathLocked(target, targetRes, orderBySteps(targetIDs, p.positionOfLocked, targetRes.Steps))

	return p.resultLocked(target), nil
}

// RemoveOrder drops one order from a waypoint. The last order cannot be removed.
func (p *Planner) RemoveOrder(wid string, index int) (*domain.Waypoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wp, err := p.waypointLocked(wid)
	if err != nil {
		return nil, fmt.Errorf("remove order: %w", err)
	}
	if index < 0 || index >= len(wp.Orders) {
		return nil, fmt.Errorf("remove order %d of %s: %w", index, wid, domain.ErrInvalidIndex)
	}
	if len(wp.Orders) == 1 {
		return nil, fmt.Errorf("remove order of %s: %w", wid, domain.ErrLastOrder)
	}

	wp.Orders = append(wp.Orders[:index:index], wp.Orders[index+1:]...)
	return wp.Clone(), nil
}

var ErrEmptyName = errors.New("route name must not be empty")

func (p *Planner) RenameRoute(rid, name string) (*RouteResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.routeLocked(rid)
	if err != nil {
		return nil, fmt.Errorf("rename route %s: %w", rid, err)
	}
	r.Name = name
	if p.draft != nil && p.draft.RouteID == rid {
		p.draft.Name = name
	}
	return p.resultLocked(r), nil
}
