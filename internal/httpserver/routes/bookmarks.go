package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(timeout(d))

		r.Get("/", handlers.ListBookmarks(d))
		r.Get("/{id}", handlers.GetBookmark(d))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d))
			r.Post("/", handlers.CreateBookmark(d))
			r.Put("/reorder", handlers.ReorderBookmarks(d))
			r.Post("/sync", handlers.SyncBookmarks(d))
			r.Patch("/{id}", handlers.UpdateBookmark(d))
			r.Delete("/{id}", handlers.DeleteBookmark(d))
		})
	})
}
