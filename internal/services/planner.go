package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/google/uuid"
)

// DraftSession marks the route reopened from a persisted draft. Selections in
// edit mode merge into it and finalizing it updates the saved route.
type DraftSession struct {
	RouteID string
	Name    string
	Color   string
}

type PlannerDeps struct {
	Optimizer ports.Optimizer
	Backlog   ports.BacklogSource
	Store     ports.PlannedRouteStore
	Notifier  ports.Notifier
	Drafts    ports.DraftStore
}

// Planner owns one operator's working set: the waypoint pool, the routes
// built from it and the optional draft session.
//
// Every optimizer-backed operation snapshots under the lock, calls the
// optimizer without it, and re-locks to apply the result. Each route carries
// a generation counter; starting a new operation on a route cancels the one
// in flight and the older response is discarded with domain.ErrSuperseded.
type Planner struct {
	deps          PlannerDeps
	center        domain.DistributionCenter
	owner         string
	newID         func() string
	notifyTimeout time.Duration

	mu         sync.Mutex
	pool       map[string]*domain.Waypoint
	poolOrder  []string
	byKey      map[string]string
	routes     map[string]*domain.Route
	routeOrder []string
	created    int
	draft      *DraftSession
	gens       map[string]uint64
	inflight   map[string]*flight
	finalizing map[string]struct{}

	bg sync.WaitGroup
}

type flight struct {
	gen    uint64
	cancel context.CancelFunc
}

// ticket is the phase (a) snapshot of one operation.
type ticket struct {
	ctx    context.Context
	cancel context.CancelFunc
	gens   map[string]uint64
	stamps map[string]string
}

const missingStamp = "\x00missing"

func NewPlanner(deps PlannerDeps, center domain.DistributionCenter, owner string) *Planner {
	return &Planner{
		deps:          deps,
		center:        center,
		owner:         owner,
		newID:         func() string { return uuid.NewString() },
		notifyTimeout: 30 * time.Second,
		pool:          map[string]*domain.Waypoint{},
		byKey:         map[string]string{},
		routes:        map[string]*domain.Route{},
		gens:          map[string]uint64{},
		inflight:      map[string]*flight{},
		finalizing:    map[string]struct{}{},
	}
}

func (p *Planner) Center() domain.DistributionCenter { return p.center }

func (p *Planner) Owner() string { return p.owner }

// beginLocked cancels whatever is in flight for routeIDs, bumps their
// generations and records the current route of each waypoint.
func (p *Planner) beginLocked(parent context.Context, routeIDs, waypointIDs []string) *ticket {
	ctx, cancel := context.WithCancel(parent)
	t := &ticket{
		ctx:    ctx,
		cancel: cancel,
		gens:   make(map[string]uint64, len(routeIDs)),
		stamps: make(map[string]string, len(waypointIDs)),
	}

	for _, rid := range routeIDs {
		if f, ok := p.inflight[rid]; ok {
			f.cancel()
		}
		p.gens[rid]++
		t.gens[rid] = p.gens[rid]
		p.inflight[rid] = &flight{gen: p.gens[rid], cancel: cancel}
	}

	for _, wid := range waypointIDs {
		if wp, ok := p.pool[wid]; ok {
			t.stamps[wid] = wp.RouteID
		} else {
			t.stamps[wid] = missingStamp
		}
	}
	return t
}

// validLocked reports whether nothing the ticket depends on changed since it began.
func (p *Planner) validLocked(t *ticket) bool {
	for rid, g := range t.gens {
		if p.gens[rid] != g {
			return false
		}
	}
	for wid, stamp := range t.stamps {
		wp, ok := p.pool[wid]
		if !ok {
			if stamp != missingStamp {
				return false
			}
			continue
		}
		if wp.RouteID != stamp {
			return false
		}
	}
	return true
}

func (p *Planner) finishLocked(t *ticket) {
	t.cancel()
	for rid, g := range t.gens {
		if f, ok := p.inflight[rid]; ok && f.gen == g {
			delete(p.inflight, rid)
		}
	}
}

// bumpLocked invalidates anything in flight for rid without starting a call.
func (p *Planner) bumpLocked(rid string) {
	if f, ok := p.inflight[rid]; ok {
		f.cancel()
		delete(p.inflight, rid)
	}
	p.gens[rid]++
}

// settle re-acquires the lock after an optimizer call and sorts out the
// common outcomes. On a nil return the lock is held and the caller applies
// the result; otherwise the lock has been released. undo, when set, reverts
// an optimistic edit after a failed call that nothing newer has overtaken.
func (p *Planner) settle(t *ticket, op string, callErr error, undo func()) error {
	p.mu.Lock()
	if !p.validLocked(t) {
		p.finishLocked(t)
		p.mu.Unlock()
		obs.StaleResponses.Inc()
		logging.Ctx(t.ctx).Debug().Str("op", op).Msg("discarding stale optimizer response")
		return domain.ErrSuperseded
	}
	if callErr != nil {
		if undo != nil {
			undo()
		}
		p.finishLocked(t)
		p.mu.Unlock()
		logging.Ctx(t.ctx).Warn().Err(callErr).Str("op", op).Msg("call failed; state unchanged")
		return callErr
	}
	return nil
}

func (p *Planner) optimize(t *ticket, points []domain.LatLng, mode ports.OptimizeMode) (*ports.OptimizeResult, error) {
	if p.deps.Optimizer == nil {
		return nil, errors.New("no optimizer configured")
	}
	return p.deps.Optimizer.Optimize(t.ctx, points, mode)
}

// payload builds the flat point list: center, vias, stops, and the center again
// when closeLoop is set.
func (p *Planner) payload(vias, stops []domain.LatLng, closeLoop bool) []domain.LatLng {
	out := make([]domain.LatLng, 0, len(vias)+len(stops)+2)
	out = append(out, p.center.Position)
	out = append(out, vias...)
	out = append(out, stops...)
	if closeLoop {
		out = append(out, p.center.Position)
	}
	return out
}

func (p *Planner) positionsLocked(ids []string) []domain.LatLng {
	out := make([]domain.LatLng, 0, len(ids))
	for _, id := range ids {
		if wp, ok := p.pool[id]; ok {
			out = append(out, wp.Position)
		}
	}
	return out
}

func (p *Planner) positionOfLocked(id string) (domain.LatLng, bool) {
	wp, ok := p.pool[id]
	if !ok {
		return domain.LatLng{}, false
	}
	return wp.Position, true
}

// addLocked inserts wp into the pool. A waypoint whose rounded coordinates
// already exist is folded into the existing entry and that entry's id is returned.
func (p *Planner) addLocked(wp *domain.Waypoint) (string, bool) {
	key := wp.Position.Key()
	if id, ok := p.byKey[key]; ok {
		existing := p.pool[id]
		existing.Orders = mergeOrders(existing.Orders, wp.Orders)
		if existing.Name == "" {
			existing.Name = wp.Name
		}
		return id, false
	}

	c := wp.Clone()
	if c.ID == "" || p.pool[c.ID] != nil {
		c.ID = p.newID()
	}
	c.RouteID = ""
	p.pool[c.ID] = c
	p.byKey[key] = c.ID
	p.poolOrder = append(p.poolOrder, c.ID)
	return c.ID, true
}

func (p *Planner) dropLocked(id string) {
	wp, ok := p.pool[id]
	if !ok {
		return
	}
	delete(p.pool, id)
	if p.byKey[wp.Position.Key()] == id {
		delete(p.byKey, wp.Position.Key())
	}
	p.poolOrder = removeID(p.poolOrder, id)
}

// mergeOrders appends incoming orders, skipping ones whose id is already present.
func mergeOrders(existing, incoming []domain.Order) []domain.Order {
	seen := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		if o.OrderID != "" {
			seen[o.OrderID] = struct{}{}
		}
	}
	out := append([]domain.Order(nil), existing...)
	for _, o := range incoming {
		if o.OrderID != "" {
			if _, dup := seen[o.OrderID]; dup {
				continue
			}
			seen[o.OrderID] = struct{}{}
		}
		out = append(out, o)
	}
	return out
}

func (p *Planner) putRouteLocked(r *domain.Route) {
	if _, ok := p.routes[r.ID]; !ok {
		p.routeOrder = append(p.routeOrder, r.ID)
	}
	p.routes[r.ID] = r
}

// deleteRouteLocked removes the route and returns its waypoints to the pool unassigned.
func (p *Planner) deleteRouteLocked(rid string) {
	r, ok := p.routes[rid]
	if !ok {
		return
	}
	p.bumpLocked(rid)
	for _, wid := range r.WaypointIDs {
		if wp, ok := p.pool[wid]; ok && wp.RouteID == rid {
			wp.RouteID = ""
		}
	}
	delete(p.routes, rid)
	p.routeOrder = removeID(p.routeOrder, rid)
	if p.draft != nil && p.draft.RouteID == rid {
		p.draft = nil
	}
}

// applyPathLocked stores an optimizer result on r. A non-nil order comes from
// a re-plan whose payload carried no vias, so the detours are dropped with it.
// A nil order is a fixed-order refresh that already routed through them.
func applyPathLocked(r *domain.Route, res *ports.OptimizeResult, order []string) {
	if order != nil {
		r.Detours = nil
		r.WaypointIDs = order
	}
	r.Geometry = res.Geometry
	r.DistanceMeters = res.DistanceMeters
	r.DurationSeconds = res.DurationSeconds
}

func (p *Planner) resultLocked(r *domain.Route) *RouteResult {
	return &RouteResult{Route: r.Clone(), Summary: domain.Summarize(r, p.pool)}
}

func (p *Planner) routeLocked(rid string) (*domain.Route, error) {
	r, ok := p.routes[rid]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	return r, nil
}

func (p *Planner) waypointLocked(wid string) (*domain.Waypoint, error) {
	wp, ok := p.pool[wid]
	if !ok {
		return nil, domain.ErrWaypointNotFound
	}
	return wp, nil
}

// Wait blocks until background notifications have finished.
func (p *Planner) Wait() { p.bg.Wait() }

// Close cancels every call in flight.
func (p *Planner) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for rid := range p.inflight {
		p.bumpLocked(rid)
	}
}

type RouteResult struct {
	Route   *domain.Route
	Summary domain.Summary
}

type RouteView struct {
	Route   *domain.Route
	Summary domain.Summary
	Pending bool
}

type Snapshot struct {
	Center    domain.DistributionCenter
	Waypoints []*domain.Waypoint
	Routes    []RouteView
	Draft     *DraftSession
}

// Snapshot returns a deep copy of the working set for rendering.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Center:    p.center,
		Waypoints: make([]*domain.Waypoint, 0, len(p.poolOrder)),
		Routes:    make([]RouteView, 0, len(p.routeOrder)),
	}
	for _, id := range p.poolOrder {
		s.Waypoints = append(s.Waypoints, p.pool[id].Clone())
	}
	for _, rid := range p.routeOrder {
		r := p.routes[rid]
		_, pending := p.inflight[rid]
		s.Routes = append(s.Routes, RouteView{
			Route:   r.Clone(),
			Summary: domain.Summarize(r, p.pool),
			Pending: pending,
		})
	}
	if p.draft != nil {
		d := *p.draft
		s.Draft = &d
	}
	return s
}

// Summaries recomputes the summary of every route from its current waypoints.
func (p *Planner) Summaries() []domain.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Summary, 0, len(p.routeOrder))
	for _, rid := range p.routeOrder {
		out = append(out, domain.Summarize(p.routes[rid], p.pool))
	}
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
