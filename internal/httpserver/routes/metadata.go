package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
)

func init() { Register(registerMetadata) }

func registerMetadata(r chi.Router, d deps.Deps) {
	r.With(timeout(d), requireAuth(d)).Post("/api/metadata", handlers.FetchMetadata(d))
}
