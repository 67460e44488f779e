package handlers

import (
	"net/http"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/utils"
)

type syncResponse struct {
	Triggered bool   `json:"triggered"`
	File      string `json:"file"`
}

// SyncBookmarks triggers a re-import of the bookmark file.
// Answers 404 when no bookmark file is configured.
func SyncBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.BookmarkSync == nil {
			writeError(w, http.StatusNotFound, "bookmark file sync is not configured")
			return
		}

		d.BookmarkSync.Trigger()
		d.Logger.Info("manual bookmark sync triggered via endpoint",
			logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
		writeJSON(w, http.StatusAccepted, syncResponse{
			Triggered: true,
			File:      d.BookmarkSync.Status().File,
		})
	}
}
