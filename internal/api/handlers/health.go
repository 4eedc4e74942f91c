package handlers

import (
	"net/http"

	"route-planning-service/internal/services"
)

// HealthHandler provides a liveness check that also reports open sessions.
type HealthHandler struct {
	Sessions *services.SessionRegistry
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"status": "ok"}
	if h.Sessions != nil {
		res["sessions"] = h.Sessions.Len()
	}
	writeJSON(w, r, http.StatusOK, res)
}
