package mapsurface

import (
	"sync"

	"route-planning-service/internal/domain"
)

// MapInteraction is the part of the map a drag gesture has to control.
type MapInteraction interface {
	DisablePanZoom()
	EnablePanZoom()
	ShowGhost(at domain.LatLng)
	MoveGhost(at domain.LatLng)
	RemoveGhost()
}

var _ MapInteraction = (*Viewport)(nil)

// Viewport records the interaction state of a client map so it can be
// reported back to the client.
type Viewport struct {
	mu       sync.Mutex
	disabled bool
	ghost    *domain.LatLng
	enables  int
}

func NewViewport() *Viewport { return &Viewport{} }

func (v *Viewport) DisablePanZoom() {
	v.mu.Lock()
	v.disabled = true
	v.mu.Unlock()
}

func (v *Viewport) EnablePanZoom() {
	v.mu.Lock()
	v.disabled = false
	v.enables++
	v.mu.Unlock()
}

func (v *Viewport) ShowGhost(at domain.LatLng) {
	v.mu.Lock()
	v.ghost = &at
	v.mu.Unlock()
}

func (v *Viewport) MoveGhost(at domain.LatLng) {
	v.mu.Lock()
	if v.ghost != nil {
		v.ghost = &at
	}
	v.mu.Unlock()
}

func (v *Viewport) RemoveGhost() {
	v.mu.Lock()
	v.ghost = nil
	v.mu.Unlock()
}

// PanZoomEnabled reports whether the map currently accepts pan and zoom.
func (v *Viewport) PanZoomEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.disabled
}

// Ghost returns the ghost marker position, or nil when none is shown.
func (v *Viewport) Ghost() *domain.LatLng {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ghost == nil {
		return nil
	}
	g := *v.ghost
	return &g
}

// Restores returns how many times pan and zoom were re-enabled.
func (v *Viewport) Restores() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enables
}
