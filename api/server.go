/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/workers/*      Worker management, history, status, payroll
  /api/sites/*        Site-level classification
  /api/enrollments/*  Acquire/lose transitions
  /api/overrides/*    Manual eligibility decisions
  /api/scenarios/*    Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Get("/{id}/history", h.GetWorkHistory)
			r.Get("/{id}/status", h.GetEffectiveStatus)
			r.Put("/{id}/records", h.SaveWorkRecords)
			r.Get("/{id}/payroll", h.GetPayrollStatement)
			r.Get("/{id}/events", h.ListEvents)
			r.Get("/{id}/enrollments", h.ListEnrollments)
		})

		// Site routes
		r.Route("/sites", func(r chi.Router) {
			r.Get("/{id}/classification", h.GetClassification)
		})

		// Enrollment transition routes
		r.Route("/enrollments", func(r chi.Router) {
			r.Post("/acquire", h.Acquire)
			r.Post("/lose", h.Lose)
		})

		// Manual override routes
		r.Route("/overrides", func(r chi.Router) {
			r.Post("/", h.SetOverride)
			r.Post("/save", h.SaveOverride)
			r.Post("/discard", h.DiscardOverride)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
