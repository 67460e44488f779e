package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/logger"
)

type sessionKey struct{}

// TokenValidator resolves a bearer token to a live session.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (auth.Session, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer <token>"
// header with 401 {"error":"unauthorized"}. The session is stored in the
// request context for handlers (see SessionFrom).
func RequireAuth(v TokenValidator, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidSession) && !errors.Is(err, auth.ErrSessionExpired) {
					log.Error("token validation failed", logger.Error(err))
				} else {
					log.Debug("RequireAuth: rejected token", logger.Error(err))
				}
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session stored by RequireAuth.
func SessionFrom(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(auth.Session)
	return sess, ok
}

// BearerToken extracts the token from the Authorization header, "" if absent.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="nowen"`)
	deny(w, http.StatusUnauthorized, "unauthorized")
}
