package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nowen/nowen/internal/database"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/scheduler"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	Schema    *int64 `json:"schema_version,omitempty"`

	Sync *scheduler.SyncStatus `json:"sync,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each backing component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"database":      checkDatabase(ctx, d),
			"health_cache":  checkHealthCache(ctx, d),
			"bookmark_sync": bookmarkSyncStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode: database down is critical, anything else only degrades.
func determineMode(components map[string]componentStatus) string {
	if db, ok := components["database"]; ok && !db.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	status := componentStatus{OK: true, Mode: "sqlite"}

	if bookmarks, err := d.Store.ListBookmarks(ctx); err == nil {
		n := len(bookmarks)
		status.Bookmarks = &n
	}
	if v, err := database.Version(d.Store.DB()); err == nil {
		status.Schema = &v
	}
	return status
}

func checkHealthCache(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "memory",
			Impact: "results-lost-on-restart",
		}
	}

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "redis",
			Impact: "last-results-unavailable",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "redis"}
}

func bookmarkSyncStatus(d deps.Deps) componentStatus {
	if d.BookmarkSync == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	st := d.BookmarkSync.Status()
	return componentStatus{
		OK:    st.LastErr == "",
		Mode:  "file",
		Error: st.LastErr,
		Sync:  &st,
	}
}
