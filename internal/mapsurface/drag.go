package mapsurface

import (
	"context"
	"fmt"
	"sync"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/services"
)

type DragState string

const (
	DragIdle     DragState = "idle"
	DragDragging DragState = "dragging"
)

// Reasons a drag ends without inserting a detour.
const (
	AbandonEscape     = "escape"
	AbandonBlur       = "blur"
	AbandonModeToggle = "mode_toggle"
	AbandonWatchdog   = "watchdog"
	AbandonReplaced   = "replaced"
)

const DefaultWatchdog = 10 * time.Second

// DragSession turns a press-move-release on a route line into a detour.
// Every way a drag can end goes through end, which restores pan and zoom and
// removes the ghost marker exactly once per gesture.
type DragSession struct {
	view     MapInteraction
	sink     IntentSink
	watchdog time.Duration

	mu  sync.Mutex
	cur *gesture
}

type gesture struct {
	routeID string
	index   int
	last    domain.LatLng
	timer   *time.Timer
	once    sync.Once
}

func NewDragSession(view MapInteraction, sink IntentSink, watchdog time.Duration) *DragSession {
	if watchdog <= 0 {
		watchdog = DefaultWatchdog
	}
	return &DragSession{view: view, sink: sink, watchdog: watchdog}
}

func (d *DragSession) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur == nil {
		return DragIdle
	}
	return DragDragging
}

// Press starts dragging segment index of routeID. A drag already in progress
// is abandoned first.
func (d *DragSession) Press(routeID string, index int, at domain.LatLng) error {
	if index < 0 {
		return fmt.Errorf("press segment %d: %w", index, domain.ErrInvalidIndex)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur != nil {
		d.endLocked(d.cur, AbandonReplaced)
	}

	g := &gesture{routeID: routeID, index: index, last: at}
	d.view.DisablePanZoom()
	d.view.ShowGhost(at)
	g.timer = time.AfterFunc(d.watchdog, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.endLocked(g, AbandonWatchdog)
	})
	d.cur = g
	return nil
}

func (d *DragSession) Move(at domain.LatLng) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur == nil {
		return
	}
	d.cur.last = at
	d.view.MoveGhost(at)
}

// Release ends the drag and inserts a detour at the release point, or at the
// last tracked point when at is nil. Releasing while idle does nothing.
func (d *DragSession) Release(ctx context.Context, at *domain.LatLng) (*services.RouteResult, error) {
	d.mu.Lock()
	g := d.cur
	if g == nil {
		d.mu.Unlock()
		return nil, nil
	}
	final := g.last
	if at != nil {
		final = *at
	}
	d.endLocked(g, "")
	d.mu.Unlock()

	return d.sink.InsertDetour(ctx, g.routeID, g.index, final)
}

// Abandon ends the drag without inserting anything.
func (d *DragSession) Abandon(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cur != nil {
		d.endLocked(d.cur, reason)
	}
}

func (d *DragSession) endLocked(g *gesture, reason string) {
	g.once.Do(func() {
		g.timer.Stop()
		d.view.RemoveGhost()
		d.view.EnablePanZoom()
		if reason != "" {
			logging.Debug().Str("route", g.routeID).Str("reason", reason).Msg("drag abandoned")
		}
	})
	if d.cur == g {
		d.cur = nil
	}
}
