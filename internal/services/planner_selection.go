package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"

	"github.com/paulmach/orb"
)

type SelectMode string

const (
	SelectCreate SelectMode = "create"
	SelectEdit   SelectMode = "edit"
)

type SelectOptions struct {
	Mode SelectMode
	// Empty means the next sequence number.
	Name string
	// Empty means the next palette color.
	Color string
}

// WaypointsInRegion returns the ids of pool waypoints inside poly, in pool order.
func (p *Planner) WaypointsInRegion(poly orb.Polygon) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inRegionLocked(poly)
}

func (p *Planner) inRegionLocked(poly orb.Polygon) []string {
	var ids []string
	for _, id := range p.poolOrder {
		if inRegion(poly, p.pool[id].Position) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SuggestRoute returns the name and color a new route would get.
func (p *Planner) SuggestRoute() (name, color string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strconv.Itoa(p.created + 1), domain.PaletteColor(p.created)
}

// SelectWaypointsByRegion selects the waypoints inside poly. In create mode the
// unassigned ones become a new route (at least two are required); in edit mode
// they are merged into the draft route.
func (p *Planner) SelectWaypointsByRegion(ctx context.Context, poly orb.Polygon, opts SelectOptions) (*RouteResult, error) {
	if err := ValidateRegion(poly); err != nil {
		return nil, err
	}

	p.mu.Lock()
	inside := p.inRegionLocked(poly)
	p.mu.Unlock()

	if opts.Mode == SelectEdit {
		return p.MergeIntoEditRoute(ctx, inside)
	}
	return p.createRoute(ctx, inside, opts)
}

func (p *Planner) createRoute(ctx context.Context, candidates []string, opts SelectOptions) (*RouteResult, error) {
	p.mu.Lock()

	selected := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if wp, ok := p.pool[id]; ok && !wp.Assigned() {
			selected = append(selected, id)
		}
	}
	if len(selected) < domain.MinSelectionWaypoints {
		p.mu.Unlock()
		return nil, fmt.Errorf("create route: %d waypoints selected: %w", len(selected), domain.ErrInsufficientPoints)
	}

	r := &domain.Route{
		ID:     p.newID(),
		Name:   strings.TrimSpace(opts.Name),
		Color:  opts.Color,
		Center: p.center,
	}
	if r.Name == "" {
		r.Name = strconv.Itoa(p.created + 1)
	}
	if r.Color == "" {
		r.Color = domain.PaletteColor(p.created)
	}

	t := p.beginLocked(ctx, []string{r.ID}, selected)
	points := p.payload(nil, p.positionsLocked(selected), false)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeDistance)
	if err := p.settle(t, "create route", err, nil); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	applyPathLocked(r, res, orderBySteps(selected, p.positionOfLocked, res.Steps))
	for _, id := range r.WaypointIDs {
		p.pool[id].RouteID = r.ID
	}
	p.putRouteLocked(r)
	p.created++

	return p.resultLocked(r), nil
}

// MergeIntoEditRoute adds waypoints to the draft route and re-optimizes it over
// center, every stop, and center again. Waypoints owned by other routes are skipped.
func (p *Planner) MergeIntoEditRoute(ctx context.Context, waypointIDs []string) (*RouteResult, error) {
	p.mu.Lock()

	if p.draft == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("merge into edit route: %w", domain.ErrNoDraftSession)
	}
	r, err := p.routeLocked(p.draft.RouteID)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("merge into edit route: %w", err)
	}

	combined := append([]string(nil), r.WaypointIDs...)
	seen := make(map[string]struct{}, len(combined))
	for _, id := range combined {
		seen[p.pool[id].Position.Key()] = struct{}{}
	}

	added := make([]string, 0, len(waypointIDs))
	for _, id := range waypointIDs {
		wp, ok := p.pool[id]
		if !ok || (wp.Assigned() && wp.RouteID != r.ID) {
			continue
		}
		key := wp.Position.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		combined = append(combined, id)
		added = append(added, id)
	}

	t := p.beginLocked(ctx, []string{r.ID}, added)
	points := p.payload(nil, p.positionsLocked(combined), true)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeDistance)
	if err := p.settle(t, "merge into edit route", err, nil); err != nil {
		return nil, fmt.Errorf("merge into edit route: %w", err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	applyPathLocked(r, res, orderBySteps(combined, p.positionOfLocked, res.Steps))
	for _, id := range r.WaypointIDs {
		p.pool[id].RouteID = r.ID
	}

	return p.resultLocked(r), nil
}

// ReselectRouteRegion applies an edited polygon to an existing route: stops that
// fell outside are unassigned, unassigned waypoints inside are added, and the
// route is re-optimized. A route left without stops is deleted.
func (p *Planner) ReselectRouteRegion(ctx context.Context, rid string, poly orb.Polygon) (*RouteResult, error) {
	if err := ValidateRegion(poly); err != nil {
		return nil, err
	}

	p.mu.Lock()

	r, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("reselect route %s: %w", rid, err)
	}

	var keep, dropped []string
	for _, id := range r.WaypointIDs {
		if inRegion(poly, p.pool[id].Position) {
			keep = append(keep, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	for _, id := range p.inRegionLocked(poly) {
		if !p.pool[id].Assigned() {
			keep = append(keep, id)
		}
	}

	if len(keep) < domain.MinRouteWaypoints {
		p.deleteRouteLocked(rid)
		p.mu.Unlock()
		return nil, nil
	}

	touched := append(append([]string(nil), keep...), dropped...)
	t := p.beginLocked(ctx, []string{rid}, touched)
	points := p.payload(nil, p.positionsLocked(keep), true)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeDistance)
	if err := p.settle(t, "reselect route", err, nil); err != nil {
		return nil, fmt.Errorf("reselect route %s: %w", rid, err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	for _, id := range dropped {
		p.pool[id].RouteID = ""
	}
	applyPathLocked(r, res, orderBySteps(keep, p.positionOfLocked, res.Steps))
	for _, id := range r.WaypointIDs {
		p.pool[id].RouteID = r.ID
	}

	return p.resultLocked(r), nil
}

// RemoveWaypointsFromRoutes deletes every route that contains any of the given
// waypoints. Their stops return to the pool unassigned; the remaining routes
// are untouched. It returns the deleted route ids.
func (p *Planner) RemoveWaypointsFromRoutes(waypointIDs []string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	selected := make(map[string]struct{}, len(waypointIDs))
	for _, id := range waypointIDs {
		selected[id] = struct{}{}
	}

	var deleted []string
	for _, rid := range append([]string(nil), p.routeOrder...) {
		for _, wid := range p.routes[rid].WaypointIDs {
			if _, ok := selected[wid]; ok {
				deleted = append(deleted, rid)
				p.deleteRouteLocked(rid)
				break
			}
		}
	}
	return deleted
}

// RemoveWaypointsInRegion is RemoveWaypointsFromRoutes for the waypoints inside poly.
func (p *Planner) RemoveWaypointsInRegion(poly orb.Polygon) ([]string, error) {
	if err := ValidateRegion(poly); err != nil {
		return nil, err
	}
	return p.RemoveWaypointsFromRoutes(p.WaypointsInRegion(poly)), nil
}
