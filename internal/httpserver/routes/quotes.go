package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerQuotes) }

func registerQuotes(r chi.Router, d deps.Deps) {
	r.Route("/api/quotes", func(r chi.Router) {
		r.Use(timeout(d))

		r.Get("/", handlers.ListQuotes(d))
		r.Get("/random", handlers.RandomQuote(d))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d))
			r.Post("/", handlers.CreateQuote(d))
			r.Delete("/{id}", handlers.DeleteQuote(d))
		})
	})
}
