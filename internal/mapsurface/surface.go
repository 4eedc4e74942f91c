package mapsurface

import (
	"context"
	"fmt"
	"sync"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"
)

type EventType string

const (
	EventDrawStart    EventType = "draw.start"
	EventEditStart    EventType = "edit.start"
	EventVertexAdd    EventType = "vertex.add"
	EventVertexMove   EventType = "vertex.move"
	EventDrawComplete EventType = "draw.complete"
	EventDrawCancel   EventType = "draw.cancel"
	EventDragPress    EventType = "drag.press"
	EventDragMove     EventType = "drag.move"
	EventDragRelease  EventType = "drag.release"
	EventEscape       EventType = "key.escape"
	EventBlur         EventType = "window.blur"
	EventModeToggle   EventType = "mode.toggle"
)

// Event is one input from the client map.
type Event struct {
	Type     EventType
	At       *domain.LatLng
	RouteID  string
	Index    int
	Name     string
	Color    string
	Vertices []domain.LatLng
}

// State is what the client needs to render the surface.
type State struct {
	Mode     services.SelectMode
	Draw     DrawState
	Vertices []domain.LatLng
	Drag     DragState
	PanZoom  bool
	Ghost    *domain.LatLng
}

// Surface drives the draw tool and the drag gesture of one session.
type Surface struct {
	Draw *DrawTool
	Drag *DragSession
	View *Viewport

	mu   sync.Mutex
	mode services.SelectMode
}

func NewSurface(sink IntentSink, watchdog time.Duration) *Surface {
	view := NewViewport()
	return &Surface{
		Draw: NewDrawTool(sink),
		Drag: NewDragSession(view, sink, watchdog),
		View: view,
		mode: services.SelectCreate,
	}
}

func (s *Surface) Mode() services.SelectMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Handle applies one event. The route result is set when the event produced
// an intent that changed a route.
func (s *Surface) Handle(ctx context.Context, ev Event) (*services.RouteResult, error) {
	switch ev.Type {
	case EventDrawStart:
		return nil, s.Draw.StartDrawing(ev.Name, ev.Color)
	case EventEditStart:
		return nil, s.Draw.StartEditing(ev.RouteID, ev.Vertices)
	case EventVertexAdd:
		at, err := requireAt(ev)
		if err != nil {
			return nil, err
		}
		return nil, s.Draw.AddVertex(at)
	case EventVertexMove:
		at, err := requireAt(ev)
		if err != nil {
			return nil, err
		}
		return nil, s.Draw.MoveVertex(ev.Index, at)
	case EventDrawComplete:
		return s.Draw.Complete(ctx, s.Mode())
	case EventDrawCancel:
		s.Draw.Cancel()
		return nil, nil
	case EventDragPress:
		at, err := requireAt(ev)
		if err != nil {
			return nil, err
		}
		return nil, s.Drag.Press(ev.RouteID, ev.Index, at)
	case EventDragMove:
		at, err := requireAt(ev)
		if err != nil {
			return nil, err
		}
		s.Drag.Move(at)
		return nil, nil
	case EventDragRelease:
		return s.Drag.Release(ctx, ev.At)
	case EventEscape:
		s.Draw.Cancel()
		s.Drag.Abandon(AbandonEscape)
		return nil, nil
	case EventBlur:
		s.Drag.Abandon(AbandonBlur)
		return nil, nil
	case EventModeToggle:
		s.Draw.Cancel()
		s.Drag.Abandon(AbandonModeToggle)
		s.mu.Lock()
		if s.mode == services.SelectEdit {
			s.mode = services.SelectCreate
		} else {
			s.mode = services.SelectEdit
		}
		s.mu.Unlock()
		return nil, nil
	default:
		return nil, fmt.Errorf("event %q: %w", ev.Type, ErrInvalidTransition)
	}
}

func (s *Surface) State() State {
	return State{
		Mode:     s.Mode(),
		Draw:     s.Draw.State(),
		Vertices: s.Draw.Vertices(),
		Drag:     s.Drag.State(),
		PanZoom:  s.View.PanZoomEnabled(),
		Ghost:    s.View.Ghost(),
	}
}

// Close abandons any drag so no watchdog outlives the session.
func (s *Surface) Close() {
	s.Draw.Cancel()
	s.Drag.Abandon(AbandonBlur)
}

func requireAt(ev Event) (domain.LatLng, error) {
	if ev.At == nil {
		return domain.LatLng{}, fmt.Errorf("event %q needs a position: %w", ev.Type, ErrInvalidTransition)
	}
	return *ev.At, nil
}
