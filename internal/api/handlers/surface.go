package handlers

import (
	"net/http"

	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/mapsurface"
)

// SurfaceEvent feeds one pointer or keyboard event into the session's map
// surface and returns the resulting interaction state.
func (h *PlanningHandler) SurfaceEvent(w http.ResponseWriter, r *http.Request) {
	sid, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.SurfaceEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ev := mapsurface.Event{
		Type:     mapsurface.EventType(req.Type),
		RouteID:  req.RouteID,
		Index:    req.Index,
		Name:     req.Name,
		Color:    req.Color,
		Vertices: fromLatLngs(req.Vertices),
	}
	if req.At != nil {
		at := fromLatLng(*req.At)
		ev.At = &at
	}

	s := h.surface(sid, p)
	res, err := s.Handle(r.Context(), ev)
	if err != nil {
		writeServiceError(w, r, "surface event", err)
		return
	}

	out := toSurfaceState(s.State())
	out.Route = toRouteResult(res)
	writeJSON(w, r, http.StatusOK, out)
}

func (h *PlanningHandler) SurfaceState(w http.ResponseWriter, r *http.Request) {
	sid, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSurfaceState(h.surface(sid, p).State()))
}

func toSurfaceState(st mapsurface.State) dto.SurfaceStateResponse {
	res := dto.SurfaceStateResponse{
		Mode:     string(st.Mode),
		Draw:     string(st.Draw),
		Vertices: toLatLngs(st.Vertices),
		Drag:     string(st.Drag),
		PanZoom:  st.PanZoom,
	}
	if st.Ghost != nil {
		g := toLatLng(*st.Ghost)
		res.Ghost = &g
	}
	return res
}
