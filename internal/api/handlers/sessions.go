package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/domain"
	"route-planning-service/internal/mapsurface"
	"route-planning-service/internal/services"

	"github.com/go-chi/chi/v5"
)

// PlanningHandler serves the planning sessions of authenticated users.
type PlanningHandler struct {
	Sessions *services.SessionRegistry
	Watchdog time.Duration

	mu       sync.Mutex
	surfaces map[string]*mapsurface.Surface
}

func NewPlanningHandler(sessions *services.SessionRegistry, watchdog time.Duration) *PlanningHandler {
	return &PlanningHandler{
		Sessions: sessions,
		Watchdog: watchdog,
		surfaces: map[string]*mapsurface.Surface{},
	}
}

func owner(r *http.Request) string {
	if c := ClaimsFromContext(r.Context()); c != nil {
		return strings.ToLower(c.Email)
	}
	return ""
}

// planner resolves {sid} for the caller and writes 404 when it is not theirs.
func (h *PlanningHandler) planner(w http.ResponseWriter, r *http.Request) (string, *services.Planner, bool) {
	sid := chi.URLParam(r, "sid")
	p, err := h.Sessions.Get(sid, owner(r))
	if err != nil {
		writeServiceError(w, r, "get session", err)
		return "", nil, false
	}
	return sid, p, true
}

func (h *PlanningHandler) surface(sid string, p *services.Planner) *mapsurface.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.surfaces[sid]
	if !ok {
		s = mapsurface.NewSurface(mapsurface.PlannerSink{Planner: p}, h.Watchdog)
		h.surfaces[sid] = s
	}
	return s
}

func (h *PlanningHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	var center *domain.DistributionCenter
	if req.Center != nil {
		center = &domain.DistributionCenter{
			Name:     req.Center.Name,
			Position: domain.LatLng{Lat: req.Center.Lat, Lng: req.Center.Lng},
		}
	}

	sid, p := h.Sessions.Open(owner(r), center)
	writeJSON(w, r, http.StatusCreated, toSession(sid, p.Snapshot()))
}

func (h *PlanningHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sid, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toSession(sid, p.Snapshot()))
}

func (h *PlanningHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if err := h.Sessions.Close(sid, owner(r)); err != nil {
		writeServiceError(w, r, "close session", err)
		return
	}

	h.mu.Lock()
	if s, ok := h.surfaces[sid]; ok {
		s.Close()
		delete(h.surfaces, sid)
	}
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanningHandler) LoadBacklog(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	added, err := p.LoadBacklog(r.Context())
	if err != nil {
		writeServiceError(w, r, "load backlog", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.BacklogResponse{Added: added})
}

func (h *PlanningHandler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}

	res, err := p.LoadDraft(r.Context())
	if err != nil {
		writeServiceError(w, r, "load draft", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.SaveDraftRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	if err := p.SaveDraft(r.Context(), req.RouteID); err != nil {
		writeServiceError(w, r, "save draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanningHandler) Select(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	poly, err := regionFrom(req.Points, req.Polygon)
	if err != nil {
		writeServiceError(w, r, "select", err)
		return
	}

	mode := services.SelectCreate
	if req.Mode == string(services.SelectEdit) {
		mode = services.SelectEdit
	}

	res, err := p.SelectWaypointsByRegion(r.Context(), poly, services.SelectOptions{
		Mode:  mode,
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeServiceError(w, r, "select", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResult(res))
}

func (h *PlanningHandler) Erase(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.planner(w, r)
	if !ok {
		return
	}
	var req dto.EraseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var deleted []string
	if len(req.WaypointIDs) > 0 {
		deleted = p.RemoveWaypointsFromRoutes(req.WaypointIDs)
	} else {
		poly, err := regionFrom(req.Points, req.Polygon)
		if err != nil {
			writeServiceError(w, r, "erase", err)
			return
		}
		if deleted, err = p.RemoveWaypointsInRegion(poly); err != nil {
			writeServiceError(w, r, "erase", err)
			return
		}
	}

	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, r, http.StatusOK, dto.EraseResponse{DeletedRoutes: deleted})
}
