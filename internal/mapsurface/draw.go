package mapsurface

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"
)

type DrawState string

const (
	DrawIdle       DrawState = "idle"
	DrawingPolygon DrawState = "drawingPolygon"
	EditingPolygon DrawState = "editingPolygon"
)

var ErrInvalidTransition = errors.New("invalid surface transition")

// DrawTool tracks one polygon gesture at a time. Completing a drawing fires
// SelectionCompleted, completing an edit fires SelectionEdited, and
// cancelling fires nothing.
type DrawTool struct {
	sink IntentSink

	mu       sync.Mutex
	state    DrawState
	vertices []domain.LatLng
	routeID  string
	name     string
	color    string
}

func NewDrawTool(sink IntentSink) *DrawTool {
	return &DrawTool{sink: sink, state: DrawIdle}
}

func (d *DrawTool) State() DrawState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DrawTool) Vertices() []domain.LatLng {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.LatLng(nil), d.vertices...)
}

// StartDrawing begins a new selection polygon. Name and color may be empty.
func (d *DrawTool) StartDrawing(name, color string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DrawIdle {
		return fmt.Errorf("start drawing from %s: %w", d.state, ErrInvalidTransition)
	}
	d.reset()
	d.state = DrawingPolygon
	d.name = name
	d.color = color
	return nil
}

// StartEditing opens routeID's existing polygon for editing.
func (d *DrawTool) StartEditing(routeID string, vertices []domain.LatLng) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != DrawIdle {
		return fmt.Errorf("start editing from %s: %w", d.state, ErrInvalidTransition)
	}
	if routeID == "" {
		return fmt.Errorf("start editing: %w", domain.ErrRouteNotFound)
	}
	d.reset()
	d.state = EditingPolygon
	d.routeID = routeID
	d.vertices = append(d.vertices, vertices...)
	return nil
}

func (d *DrawTool) AddVertex(at domain.LatLng) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DrawIdle {
		return fmt.Errorf("add vertex while idle: %w", ErrInvalidTransition)
	}
	d.vertices = append(d.vertices, at)
	return nil
}

func (d *DrawTool) MoveVertex(index int, at domain.LatLng) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == DrawIdle {
		return fmt.Errorf("move vertex while idle: %w", ErrInvalidTransition)
	}
	if index < 0 || index >= len(d.vertices) {
		return fmt.Errorf("move vertex %d: %w", index, domain.ErrInvalidIndex)
	}
	d.vertices[index] = at
	return nil
}

// Complete closes the polygon and fires the matching intent. The tool is back
// to idle afterwards, even when the intent fails.
func (d *DrawTool) Complete(ctx context.Context, mode services.SelectMode) (*services.RouteResult, error) {
	d.mu.Lock()
	state := d.state
	sel := Selection{Mode: mode, Name: d.name, Color: d.color, RouteID: d.routeID}
	vertices := append([]domain.LatLng(nil), d.vertices...)
	if state != DrawIdle {
		d.reset()
	}
	d.mu.Unlock()

	if state == DrawIdle {
		return nil, fmt.Errorf("complete while idle: %w", ErrInvalidTransition)
	}

	poly, err := services.PolygonFromLatLngs(vertices)
	if err != nil {
		return nil, err
	}
	sel.Polygon = poly

	if state == EditingPolygon {
		return d.sink.SelectionEdited(ctx, sel)
	}
	return d.sink.SelectionCompleted(ctx, sel)
}

// Cancel drops the gesture in progress without firing anything.
func (d *DrawTool) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *DrawTool) reset() {
	d.state = DrawIdle
	d.vertices = nil
	d.routeID = ""
	d.name = ""
	d.color = ""
}
