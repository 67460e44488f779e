package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/handlers"
	"github.com/nowen/nowen/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(timeout(d))

		r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.LoginBurst,
			RefillPerIPPerMin: d.LoginRatePerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		})).Post("/login", handlers.Login(d))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d))
			r.Post("/logout", handlers.Logout(d))
			r.Get("/verify", handlers.Verify(d))
			r.Post("/change-password", handlers.ChangePassword(d))
		})
	})
}
