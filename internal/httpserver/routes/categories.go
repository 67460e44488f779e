package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerCategories) }

func registerCategories(r chi.Router, d deps.Deps) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(timeout(d))

		r.Get("/", handlers.ListCategories(d))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d))
			r.Post("/", handlers.CreateCategory(d))
			r.Put("/reorder", handlers.ReorderCategories(d))
			r.Patch("/{id}", handlers.UpdateCategory(d))
			r.Delete("/{id}", handlers.DeleteCategory(d))
		})
	})
}
