package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Use(timeout(d))
		r.Get("/", handlers.GetSettings(d))
		r.With(requireAuth(d)).Put("/", handlers.UpdateSettings(d))
	})
}
