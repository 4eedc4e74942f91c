package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/ports"
)

// Name of a reopened draft that was saved without one.
const defaultDraftName = "TEMP"

// LoadBacklog fetches pending stops and adds them to the pool. Stops whose
// rounded coordinates are already known are folded into the existing entry.
// It returns how many new waypoints were added.
func (p *Planner) LoadBacklog(ctx context.Context) (int, error) {
	if p.deps.Backlog == nil {
		return 0, errors.New("load backlog: no backlog source configured")
	}

	wps, err := p.deps.Backlog.FetchBacklog(ctx)
	if err != nil {
		return 0, fmt.Errorf("load backlog: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, wp := range wps {
		if wp == nil {
			continue
		}
		if _, ok := p.addLocked(wp); ok {
			added++
		}
	}

	logging.Ctx(ctx).Info().
		Str("owner", p.owner).
		Int("fetched", len(wps)).
		Int("added", added).
		Msg("backlog loaded")
	return added, nil
}

// LoadDraft reopens the operator's saved draft as a route and marks it as the
// draft session. If a draft session is already open it is returned as is.
func (p *Planner) LoadDraft(ctx context.Context) (*RouteResult, error) {
	if p.deps.Drafts == nil {
		return nil, fmt.Errorf("load draft: %w", domain.ErrNoDraftSession)
	}

	p.mu.Lock()
	if p.draft != nil {
		if r, ok := p.routes[p.draft.RouteID]; ok {
			defer p.mu.Unlock()
			return p.resultLocked(r), nil
		}
	}
	p.mu.Unlock()

	d, err := p.deps.Drafts.LoadDraft(ctx, p.owner)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if len(d.Waypoints) < domain.MinRouteWaypoints {
		return nil, fmt.Errorf("load draft: %w", domain.ErrInsufficientPoints)
	}

	p.mu.Lock()
	// Draft stops join the pool; the ones already routed elsewhere stay put.
	ids := make([]string, 0, len(d.Waypoints))
	seen := map[string]struct{}{}
	for _, wp := range d.Waypoints {
		if wp == nil {
			continue
		}
		id, _ := p.addLocked(wp)
		if _, dup := seen[id]; dup || p.pool[id].Assigned() {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < domain.MinRouteWaypoints {
		p.mu.Unlock()
		return nil, fmt.Errorf("load draft: %w", domain.ErrInsufficientPoints)
	}

	rid := p.newID()
	t := p.beginLocked(ctx, []string{rid}, ids)
	points := p.payload(nil, p.positionsLocked(ids), true)
	p.mu.Unlock()

	res, err := p.optimize(t, points, ports.ModeDistance)
	if err := p.settle(t, "load draft", err, nil); err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	defer p.mu.Unlock()
	defer p.finishLocked(t)

	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = defaultDraftName
	}
	r := &domain.Route{
		ID:     rid,
		Name:   name,
		Color:  domain.PaletteColor(0),
		Center: p.center,
	}

	applyPathLocked(r, res, orderBySteps(ids, p.positionOfLocked, res.Steps))
	for _, id := range r.WaypointIDs {
		p.pool[id].RouteID = rid
	}
	p.putRouteLocked(r)
	p.draft = &DraftSession{RouteID: rid, Name: r.Name, Color: r.Color}

	return p.resultLocked(r), nil
}

// SaveDraft persists a route as the operator's draft. An empty rid means the
// open draft session.
func (p *Planner) SaveDraft(ctx context.Context, rid string) error {
	if p.deps.Drafts == nil {
		return fmt.Errorf("save draft: %w", domain.ErrNoDraftSession)
	}

	p.mu.Lock()
	if rid == "" {
		if p.draft == nil {
			p.mu.Unlock()
			return fmt.Errorf("save draft: %w", domain.ErrNoDraftSession)
		}
		rid = p.draft.RouteID
	}
	r, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("save draft: %w", err)
	}

	d := &ports.Draft{
		Name:      r.Name,
		Geometry:  r.Geometry,
		Waypoints: make([]*domain.Waypoint, 0, len(r.WaypointIDs)),
		Summary:   domain.Summarize(r, p.pool),
	}
	for _, id := range r.WaypointIDs {
		if wp, ok := p.pool[id]; ok {
			d.Waypoints = append(d.Waypoints, wp.Clone())
		}
	}
	p.mu.Unlock()

	if err := p.deps.Drafts.SaveDraft(ctx, p.owner, d); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Finalize hands a route to the planned-route store and removes it and its
// stops from the working set. The draft route is updated in place instead of
// saved anew. The sales notification is sent in the background; its failure
// is only logged. A store failure leaves everything as it was. Stops moved
// to another route while the save was running stay with that route.
func (p *Planner) Finalize(ctx context.Context, rid string) (*domain.PlannedRoute, error) {
	if p.deps.Store == nil {
		return nil, errors.New("finalize: no planned route store configured")
	}

	p.mu.Lock()
	r, err := p.routeLocked(rid)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("finalize route %s: %w", rid, err)
	}
	if _, busy := p.finalizing[rid]; busy {
		p.mu.Unlock()
		return nil, fmt.Errorf("finalize route %s: already in progress: %w", rid, domain.ErrConflict)
	}
	p.finalizing[rid] = struct{}{}
	planned := domain.NewPlannedRoute(r, domain.Summarize(r, p.pool), p.pool)
	isDraft := p.draft != nil && p.draft.RouteID == rid
	members := append([]string(nil), r.WaypointIDs...)
	t := p.beginLocked(ctx, []string{rid}, members)
	p.mu.Unlock()

	// Edits arriving during the save cancel the ticket, not the save itself.
	if isDraft {
		err = p.deps.Store.UpdatePlannedRoute(ctx, planned)
	} else {
		err = p.deps.Store.SavePlannedRoute(ctx, planned)
	}
	if err != nil {
		p.mu.Lock()
		delete(p.finalizing, rid)
		p.mu.Unlock()
		_ = p.settle(t, "finalize route", err, nil)
		return nil, fmt.Errorf("finalize route %s: %w", rid, err)
	}

	// The store owns the route now, so it leaves the working set even when an
	// edit overtook the save.
	p.mu.Lock()
	delete(p.finalizing, rid)
	p.finishLocked(t)
	p.deleteRouteLocked(rid)
	for _, id := range members {
		if wp, ok := p.pool[id]; ok && !wp.Assigned() {
			p.dropLocked(id)
		}
	}
	p.mu.Unlock()

	log := logging.Ctx(ctx)
	log.Info().
		Str("route", planned.RouteNumber).
		Str("orders", planned.OrderCount).
		Bool("draft", isDraft).
		Msg("route finalized")

	if isDraft && p.deps.Drafts != nil {
		if err := p.deps.Drafts.ClearDraft(ctx, p.owner); err != nil {
			log.Warn().Err(err).Msg("clear draft failed")
		}
	}

	if p.deps.Notifier != nil {
		nctx := context.WithoutCancel(ctx)
		p.bg.Add(1)
		go func() {
			defer p.bg.Done()
			nctx, cancel := context.WithTimeout(nctx, p.notifyTimeout)
			defer cancel()
			if err := p.deps.Notifier.NotifySales(nctx, planned); err != nil {
				logging.Ctx(nctx).Warn().Err(err).Str("route", planned.RouteNumber).Msg("sales notification failed")
			}
		}()
	}

	return &planned, nil
}
