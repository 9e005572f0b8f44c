package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router. authMW guards everything under /api;
// the health endpoint stays open.
func SetupRoutes(h *Handlers, authMW Middleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	if h.health != nil {
		r.Get("/health", h.health.HandleHealth)
	}

	r.Route("/api", func(r chi.Router) {
		if authMW != nil {
			r.Use(authMW)
		}

		r.Route("/automation", func(r chi.Router) {
			r.Post("/run", h.RunAutomation)
			r.Get("/logs", h.ListLogs)

			r.Route("/rules", func(r chi.Router) {
				r.Get("/", h.ListRules)
				r.Post("/", h.CreateRule)
				r.Route("/{ruleID}", func(r chi.Router) {
					r.Get("/", h.GetRule)
					r.Put("/", h.UpdateRule)
					r.Delete("/", h.DeleteRule)
					r.Post("/enable", h.EnableRule)
					r.Post("/disable", h.DisableRule)
					r.Post("/reset-cooldown", h.ResetRuleCooldown)
				})
			})
		})

		r.Route("/launch", func(r chi.Router) {
			r.Post("/run", h.RunLaunch)
			r.Get("/runs/{idempotencyKey}", h.GetLaunchRun)
		})
	})

	return r
}
