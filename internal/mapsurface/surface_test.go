package mapsurface

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"
)

type detourCall struct {
	routeID string
	index   int
	at      domain.LatLng
}

type recordingSink struct {
	mu        sync.Mutex
	completed []Selection
	edited    []Selection
	detours   []detourCall
}

func (r *recordingSink) SelectionCompleted(ctx context.Context, s Selection) (*services.RouteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, s)
	return &services.RouteResult{}, nil
}

func (r *recordingSink) SelectionEdited(ctx context.Context, s Selection) (*services.RouteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edited = append(r.edited, s)
	return &services.RouteResult{}, nil
}

func (r *recordingSink) InsertDetour(ctx context.Context, routeID string, index int, at domain.LatLng) (*services.RouteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detours = append(r.detours, detourCall{routeID: routeID, index: index, at: at})
	return &services.RouteResult{}, nil
}

func (r *recordingSink) detourCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.detours)
}

func pt(lat, lng float64) *domain.LatLng {
	return &domain.LatLng{Lat: lat, Lng: lng}
}

func drawTriangle(t *testing.T, s *Surface) {
	t.Helper()
	ctx := context.Background()
	for _, at := range []*domain.LatLng{pt(0, 0), pt(0, 1), pt(1, 1)} {
		if _, err := s.Handle(ctx, Event{Type: EventVertexAdd, At: at}); err != nil {
			t.Fatalf("add vertex: %v", err)
		}
	}
}

func TestDrawCompleteFiresSelection(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, time.Second)
	ctx := context.Background()

	if _, err := s.Handle(ctx, Event{Type: EventDrawStart, Name: "Sur", Color: "#000"}); err != nil {
		t.Fatalf("draw start: %v", err)
	}
	if s.State().Draw != DrawingPolygon {
		t.Fatalf("state = %s", s.State().Draw)
	}
	if _, err := s.Handle(ctx, Event{Type: EventDrawStart}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second start err = %v", err)
	}
	drawTriangle(t, s)

	if _, err := s.Handle(ctx, Event{Type: EventDrawComplete}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(sink.completed) != 1 || len(sink.edited) != 0 {
		t.Fatalf("completed = %d, edited = %d", len(sink.completed), len(sink.edited))
	}
	sel := sink.completed[0]
	if sel.Name != "Sur" || sel.Mode != services.SelectCreate || !sel.Polygon[0].Closed() {
		t.Fatalf("selection = %+v", sel)
	}
	if s.State().Draw != DrawIdle {
		t.Fatalf("tool must be idle after completion")
	}
}

func TestEditCompleteFiresEdited(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, time.Second)
	ctx := context.Background()

	if _, err := s.Handle(ctx, Event{Type: EventModeToggle}); err != nil || s.Mode() != services.SelectEdit {
		t.Fatalf("mode toggle: %v %s", err, s.Mode())
	}

	err := s.Draw.StartEditing("r1", []domain.LatLng{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}})
	if err != nil {
		t.Fatalf("start editing: %v", err)
	}
	if _, err := s.Handle(ctx, Event{Type: EventVertexMove, Index: 2, At: pt(2, 2)}); err != nil {
		t.Fatalf("move vertex: %v", err)
	}
	if _, err := s.Handle(ctx, Event{Type: EventDrawComplete}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(sink.edited) != 1 || sink.edited[0].RouteID != "r1" {
		t.Fatalf("edited = %+v", sink.edited)
	}
}

func TestCancelPathsFireNothing(t *testing.T) {
	for _, typ := range []EventType{EventDrawCancel, EventEscape, EventModeToggle} {
		t.Run(string(typ), func(t *testing.T) {
			sink := &recordingSink{}
			s := NewSurface(sink, time.Second)
			ctx := context.Background()

			if _, err := s.Handle(ctx, Event{Type: EventDrawStart}); err != nil {
				t.Fatalf("draw start: %v", err)
			}
			drawTriangle(t, s)
			if _, err := s.Handle(ctx, Event{Type: typ}); err != nil {
				t.Fatalf("%s: %v", typ, err)
			}
			if s.State().Draw != DrawIdle || len(s.State().Vertices) != 0 {
				t.Fatalf("drawing not cancelled: %+v", s.State())
			}
			if _, err := s.Handle(ctx, Event{Type: EventDrawComplete}); !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("complete after cancel err = %v", err)
			}
			if len(sink.completed) != 0 {
				t.Fatalf("cancelled drawing must not fire")
			}
		})
	}
}

func TestDragReleaseInsertsDetour(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, time.Second)
	ctx := context.Background()

	if _, err := s.Handle(ctx, Event{Type: EventDragPress, RouteID: "r1", Index: 2, At: pt(1, 1)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	st := s.State()
	if st.Drag != DragDragging || st.PanZoom || st.Ghost == nil {
		t.Fatalf("state while dragging = %+v", st)
	}

	if _, err := s.Handle(ctx, Event{Type: EventDragMove, At: pt(1.5, 1.5)}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if g := s.State().Ghost; g == nil || *g != *pt(1.5, 1.5) {
		t.Fatalf("ghost = %v", g)
	}

	if _, err := s.Handle(ctx, Event{Type: EventDragRelease}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(sink.detours) != 1 {
		t.Fatalf("detours = %d, want 1", len(sink.detours))
	}
	got := sink.detours[0]
	if got.routeID != "r1" || got.index != 2 || got.at != *pt(1.5, 1.5) {
		t.Fatalf("detour = %+v, want last tracked position", got)
	}

	st = s.State()
	if st.Drag != DragIdle || !st.PanZoom || st.Ghost != nil || s.View.Restores() != 1 {
		t.Fatalf("state after release = %+v restores=%d", st, s.View.Restores())
	}

	if res, err := s.Handle(ctx, Event{Type: EventDragRelease, At: pt(3, 3)}); err != nil || res != nil {
		t.Fatalf("release while idle must be a no-op: %v %v", res, err)
	}
}

func TestBlurRestoresPanZoomOnce(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, time.Second)
	ctx := context.Background()

	if _, err := s.Handle(ctx, Event{Type: EventDragPress, RouteID: "r1", Index: 0, At: pt(1, 1)}); err != nil {
		t.Fatalf("press: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Handle(ctx, Event{Type: EventBlur}); err != nil {
			t.Fatalf("blur: %v", err)
		}
	}
	if _, err := s.Handle(ctx, Event{Type: EventEscape}); err != nil {
		t.Fatalf("escape: %v", err)
	}

	st := s.State()
	if !st.PanZoom || st.Ghost != nil || st.Drag != DragIdle {
		t.Fatalf("state after blur = %+v", st)
	}
	if s.View.Restores() != 1 {
		t.Fatalf("pan/zoom restored %d times, want 1", s.View.Restores())
	}
	if sink.detourCount() != 0 {
		t.Fatalf("abandoned drag must not insert a detour")
	}
}

func TestDragWatchdogAbandons(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, 20*time.Millisecond)

	if err := s.Drag.Press("r1", 0, domain.LatLng{Lat: 1, Lng: 1}); err != nil {
		t.Fatalf("press: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Drag.State() != DragIdle {
		if time.Now().After(deadline) {
			t.Fatalf("watchdog did not fire")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !s.View.PanZoomEnabled() || s.View.Ghost() != nil || s.View.Restores() != 1 {
		t.Fatalf("watchdog cleanup incomplete: restores=%d", s.View.Restores())
	}

	s.Drag.Abandon(AbandonBlur)
	if s.View.Restores() != 1 {
		t.Fatalf("cleanup ran twice")
	}
	if res, err := s.Drag.Release(context.Background(), nil); err != nil || res != nil || sink.detourCount() != 0 {
		t.Fatalf("release after watchdog must do nothing")
	}
}

func TestPressReplacesDrag(t *testing.T) {
	sink := &recordingSink{}
	s := NewSurface(sink, time.Second)

	if err := s.Drag.Press("r1", 0, domain.LatLng{}); err != nil {
		t.Fatalf("press: %v", err)
	}
	if err := s.Drag.Press("r2", 1, domain.LatLng{Lat: 1}); err != nil {
		t.Fatalf("second press: %v", err)
	}
	if s.View.Restores() != 1 || s.View.PanZoomEnabled() {
		t.Fatalf("replaced drag must clean up once and keep pan/zoom disabled")
	}

	if _, err := s.Drag.Release(context.Background(), nil); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(sink.detours) != 1 || sink.detours[0].routeID != "r2" {
		t.Fatalf("detours = %+v", sink.detours)
	}
	s.Close()
}
