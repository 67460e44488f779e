package handlers

import (
	"net/http"

	"github.com/nowen/nowen/internal/httpserver/deps"
)

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := d.Store.GetSettings(r.Context())
		if err != nil {
			internalError(w, d.Logger, "failed to load settings", err)
			return
		}
		if settings == nil {
			settings = map[string]string{}
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

// UpdateSettings upserts the given keys and returns the merged settings.
func UpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values map[string]string
		if err := decodeJSON(w, r, &values, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "settings must be an object of strings")
			return
		}
		for k := range values {
			if k == "" {
				writeError(w, http.StatusBadRequest, "setting keys cannot be empty")
				return
			}
		}

		settings, err := d.Store.UpdateSettings(r.Context(), values)
		if err != nil {
			internalError(w, d.Logger, "failed to update settings", err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}
