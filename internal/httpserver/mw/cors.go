package mw

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the SPA client call the API from the listed origins with
// github.com/go-chi/cors. "*" allows any origin; an empty list sends no
// CORS headers at all.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"Content-Disposition", "Retry-After",
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-ID",
		},
		MaxAge: 600,
	})
}
