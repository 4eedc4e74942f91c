package handlers

import (
	"net/http"
	"strconv"

	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"

	"github.com/go-chi/chi/v5"
)

func urlIndex(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil || idx < 0 {
		writeError(w, r, http.StatusBadRequest, key+" must be a non-negative integer")
		return 0, false
	}
	return idx, true
}

func (h *PlanningHandler) ReselectRegion(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.Region
	if !decodeJSON(w, r, &req) {
		return
	}

	poly, err := regionFrom(req.Points, req.Polygon)
	if err != nil {
		writeServiceError(w, r, "reselect region", err)
		return
	}

	res, err := p.ReselectRouteRegion(r.Context(), chi.URLParam(r, "rid"), poly)
	if err != nil {
		writeServiceError(w, r, "reselect region", err)
		return
	}
	if res == nil {
		// every stop fell outside the new region
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Assign(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.AssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := p.AssignWaypoint(r.Context(), req.WaypointID, chi.URLParam(r, "rid"))
	if err != nil {
		writeServiceError(w, r, "assign waypoint", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	res, err := p.UnassignWaypoint(r.Context(), chi.URLParam(r, "wid"))
	if err != nil {
		writeServiceError(w, r, "unassign waypoint", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.UnassignResponse{
		Warning:      res.Warning,
		RouteDeleted: res.RouteDeleted,
		Route:        toRouteResult(res.Route),
	})
}

func (h *PlanningHandler) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	idx, ok := urlIndex(w, r, "idx")
	if !ok {
		return
	}

	wp, err := p.RemoveOrder(chi.URLParam(r, "wid"), idx)
	if err != nil {
		writeServiceError(w, r, "remove order", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toWaypoint(wp))
}

func (h *PlanningHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := p.ReorderWaypointWithinRoute(r.Context(), chi.URLParam(r, "rid"), req.DraggedID, req.TargetID)
	if err != nil {
		writeServiceError(w, r, "reorder", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Reoptimize(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.ReoptimizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := p.Reoptimize(r.Context(), chi.URLParam(r, "rid"), ports.OptimizeMode(req.Objective))
	if err != nil {
		writeServiceError(w, r, "reoptimize", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Rename(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := p.RenameRoute(chi.URLParam(r, "rid"), req.Name)
	if err != nil {
		writeServiceError(w, r, "rename", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) InsertDetour(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.DetourRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	at := domain.LatLng{Lat: req.Lat, Lng: req.Lng}
	res, err := p.InsertDetourPoint(r.Context(), chi.URLParam(r, "rid"), req.Index, at)
	if err != nil {
		writeServiceError(w, r, "insert detour", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) MoveDetour(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	idx, ok := urlIndex(w, r, "idx")
	if !ok {
		return
	}
	var req dto.LatLng
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := p.MoveDetourPoint(r.Context(), chi.URLParam(r, "rid"), idx, fromLatLng(req))
	if err != nil {
		writeServiceError(w, r, "move detour", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) DeleteDetour(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	idx, ok := urlIndex(w, r, "idx")
	if !ok {
		return
	}

	res, err := p.DeleteDetourPoint(r.Context(), chi.URLParam(r, "rid"), idx)
	if err != nil {
		writeServiceError(w, r, "delete detour", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	planned, err := p.Finalize(r.Context(), chi.URLParam(r, "rid"))
	if err != nil {
		writeServiceError(w, r, "finalize", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPlannedRoute(planned))
}
