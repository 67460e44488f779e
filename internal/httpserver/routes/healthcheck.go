package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerHealthCheck) }

// Health checks are not wrapped in the request timeout: a batch over many
// bookmarks runs for as long as it needs.
func registerHealthCheck(r chi.Router, d deps.Deps) {
	r.Route("/api/health-check", func(r chi.Router) {
		r.Use(requireAuth(d))
		r.Post("/", handlers.HealthCheck(d))
		r.Post("/single", handlers.HealthCheckSingle(d))
		r.Get("/last", handlers.LastHealthResults(d))
	})
}
