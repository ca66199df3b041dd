/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the operations frontend

ROUTE GROUPS:
  /api/tenures/*    Tenure catalog administration
  /api/plans/*      Pricing plans, composition mutators, schedules
  /api/scenarios/*  Demo scenarios

SECURITY NOTE:
  No authentication middleware. Auth and role checks belong to the
  surrounding platform that fronts this service.

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

	r.Route("/api", func(r chi.Router) {
		// Tenure catalog routes
		r.Route("/tenures", func(r chi.Router) {
			r.Get("/", h.ListTenures)
			r.Post("/", h.CreateTenure)
			r.Delete("/{code}", h.DeleteTenure)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
			r.Delete("/{id}", h.DeletePlan)
			r.Get("/{id}/summary", h.GetSummary)

			r.Post("/{id}/members", h.AddMember)
			r.Delete("/{id}/members/{index}", h.RemoveMember)
			r.Put("/{id}/investment", h.SetInvestment)
			r.Put("/{id}/duration", h.SetDuration)

			r.Post("/{id}/schedule", h.BuildSchedule)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
