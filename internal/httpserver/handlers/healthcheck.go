package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
)

type healthCheckRequest struct {
	BookmarkIDs json.RawMessage `json:"bookmarkIds"`
}

type lastResultsResponse struct {
	Results []domain.HealthRecord `json:"results"`
}

// HealthCheck probes the requested bookmarks (all of them when bookmarkIds
// is absent, empty or not a string array) and answers {results, summary}.
// The batch is detached from the request: a client disconnect does not stop it.
func HealthCheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			internalError(w, d.Logger, "failed to read request body", err)
			return
		}
		ids, err := parseBookmarkIDs(body)
		if err != nil {
			internalError(w, d.Logger, "invalid request body", err)
			return
		}

		ctx := context.WithoutCancel(r.Context())
		report, err := d.Health.CheckBookmarks(ctx, ids)
		if err != nil {
			internalError(w, d.Logger, "health check failed", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// parseBookmarkIDs returns the requested ids, or nil for "all bookmarks".
// Only malformed JSON is an error.
func parseBookmarkIDs(body []byte) ([]string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var req healthCheckRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	if len(req.BookmarkIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(req.BookmarkIDs, &ids); err != nil {
		return nil, nil
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// HealthCheckSingle probes one URL and answers the raw probe.
func HealthCheckSingle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		target := strings.TrimSpace(req.URL)
		if target == "" {
			writeError(w, http.StatusBadRequest, "URL is required")
			return
		}

		probe := d.Health.CheckURL(context.WithoutCancel(r.Context()), target)
		d.Logger.Debug("single health check",
			logger.String("url", target),
			logger.String("status", string(probe.Status)),
			logger.Int64("response_time_ms", probe.ResponseTime))
		writeJSON(w, http.StatusOK, probe)
	}
}

// LastHealthResults returns the last cached probe of every bookmark.
func LastHealthResults(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Health.LastResults(r.Context())
		if err != nil {
			internalError(w, d.Logger, "failed to load health results", err)
			return
		}
		writeJSON(w, http.StatusOK, lastResultsResponse{Results: orEmpty(records)})
	}
}
