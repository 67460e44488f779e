package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/httpserver/mw"
	"github.com/nowen/nowen/internal/logger"
)

const minPasswordLength = 6

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type verifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

// Login exchanges credentials for a bearer token.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		sess, err := d.Auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			d.Logger.Warn("failed login", logger.String("username", req.Username))
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		case err != nil:
			internalError(w, d.Logger, "login failed", err)
			return
		}

		d.Logger.Info("admin logged in", logger.String("username", sess.Username))
		writeJSON(w, http.StatusOK, sess)
	}
}

// Logout revokes the token used for the request.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Auth.Logout(r.Context(), mw.BearerToken(r)); err != nil {
			internalError(w, d.Logger, "logout failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Verify reports the session behind a valid token.
func Verify(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := mw.SessionFrom(r.Context())
		writeJSON(w, http.StatusOK, verifyResponse{Valid: true, Username: sess.Username})
	}
}

// ChangePassword updates the admin password and revokes the admin's other sessions.
func ChangePassword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.SessionFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req changePasswordRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.NewPassword) < minPasswordLength {
			writeError(w, http.StatusBadRequest, "new password must be at least 6 characters")
			return
		}

		err := d.Auth.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		case err != nil:
			internalError(w, d.Logger, "failed to change password", err)
			return
		}

		d.Logger.Info("admin password changed", logger.String("username", sess.Username))
		w.WriteHeader(http.StatusNoContent)
	}
}
