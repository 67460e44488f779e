package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerData) }

func registerData(r chi.Router, d deps.Deps) {
	r.Route("/api/data", func(r chi.Router) {
		r.Use(timeout(d), requireAuth(d))
		r.Get("/export", handlers.ExportData(d))
		r.Post("/import", handlers.ImportData(d))
		r.Post("/factory-reset", handlers.FactoryReset(d))
	})
}
