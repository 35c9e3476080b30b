/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request count/latency
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/dashboard        Dashboard
  /api/clients/*        Add Client
  /api/policies/*       Add Policy
  /api/import/*         Import from Excel
  /api/renewals/*       Upcoming Renewals
  /api/notifications/*  Bulk WhatsApp
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness

TIMEOUTS:
  No request timeout middleware. A reminder batch blocks on the provider
  one message at a time and must not be cut off halfway.

SECURITY NOTE:
  No authentication. Run it on the agent's machine or behind a proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/crm/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/", h.CommitImport)
			r.Post("/preview", h.PreviewImport)
		})

		r.Route("/renewals", func(r chi.Router) {
			r.Get("/", h.ListRenewals)
			r.Get("/export", h.ExportRenewals)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/preview", h.PreviewNotifications)
			r.Post("/bulk", h.SendBulkNotifications)
		})
	})

	return r
}
