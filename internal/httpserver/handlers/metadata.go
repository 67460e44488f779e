package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/metadata"
)

type urlRequest struct {
	URL string `json:"url"`
}

// FetchMetadata extracts title, description and favicon from a page.
func FetchMetadata(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil || strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		meta, err := d.Metadata.Fetch(r.Context(), strings.TrimSpace(req.URL))
		if errors.Is(err, metadata.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, "invalid url")
			return
		}
		if err != nil {
			d.Logger.Warn("metadata fetch failed",
				logger.String("url", req.URL),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, "failed to fetch metadata")
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}
