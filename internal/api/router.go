package api

import (
	"net/http"
	"time"

	"route-planning-service/internal/api/handlers"
	"route-planning-service/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries what the router needs from the composition root.
type Deps struct {
	Auth     *services.AuthService
	Sessions *services.SessionRegistry
	// Drag gestures are abandoned after this long without a release.
	DragWatchdog time.Duration
	CORSOrigins  []string
	// Login attempts allowed per client IP per minute. Zero disables the limit.
	LoginRatePerMinute int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(loggingMiddleware)

	health := &handlers.HealthHandler{Sessions: d.Sessions}
	auth := &handlers.AuthHandler{Auth: d.Auth}
	planning := handlers.NewPlanningHandler(d.Sessions, d.DragWatchdog)

	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", auth.Register)
		if d.LoginRatePerMinute > 0 {
			r.With(httprate.LimitByIP(d.LoginRatePerMinute, time.Minute)).Post("/login", auth.Login)
		} else {
			r.Post("/login", auth.Login)
		}
		r.Post("/verify", auth.Verify)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/sessions", planning.CreateSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", planning.GetSession)
			r.Delete("/", planning.CloseSession)

			r.Post("/backlog", planning.LoadBacklog)
			r.Post("/draft", planning.LoadDraft)
			r.Put("/draft", planning.SaveDraft)

			r.Post("/selections", planning.Select)
			r.Post("/erase", planning.Erase)

			r.Delete("/waypoints/{wid}/route", planning.Unassign)
			r.Delete("/waypoints/{wid}/orders/{idx}", planning.RemoveOrder)

			r.Route("/routes/{rid}", func(r chi.Router) {
				r.Patch("/", planning.Rename)
				r.Put("/region", planning.ReselectRegion)
				r.Post("/waypoints", planning.Assign)
				r.Post("/reorder", planning.Reorder)
				r.Post("/reoptimize", planning.Reoptimize)
				r.Post("/detours", planning.InsertDetour)
				r.Put("/detours/{idx}", planning.MoveDetour)
				r.Delete("/detours/{idx}", planning.DeleteDetour)
				r.Post("/finalize", planning.Finalize)
			})

			r.Get("/surface", planning.SurfaceState)
			r.Post("/surface/events", planning.SurfaceEvent)
		})
	})

	return r
}
