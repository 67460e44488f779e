package handlers

import (
	"fmt"
	"net/http"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
)

// ExportData downloads the full dataset as a JSON attachment.
func ExportData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Store.Export(r.Context())
		if err != nil {
			internalError(w, d.Logger, "failed to export data", err)
			return
		}
		snap.Categories = orEmpty(snap.Categories)
		snap.Bookmarks = orEmpty(snap.Bookmarks)
		snap.Quotes = orEmpty(snap.Quotes)

		name := fmt.Sprintf("nowen-backup-%s.json", d.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		writeJSON(w, http.StatusOK, snap)
	}
}

// ImportData loads a snapshot. mode=replace wipes existing data first;
// the default mode=merge upserts by id.
func ImportData(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var replace bool
		switch mode := r.URL.Query().Get("mode"); mode {
		case "", "merge":
		case "replace":
			replace = true
		default:
			writeError(w, http.StatusBadRequest, "mode must be merge or replace")
			return
		}

		var snap domain.Snapshot
		if err := decodeJSON(w, r, &snap, maxImportBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid backup file")
			return
		}
		if snap.Version > domain.SnapshotVersion {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported backup version %d", snap.Version))
			return
		}

		stats, err := d.Store.Import(r.Context(), snap, replace)
		if err != nil {
			internalError(w, d.Logger, "failed to import data", err)
			return
		}
		d.Logger.Info("data imported",
			logger.Bool("replace", replace),
			logger.Int("categories", stats.Categories),
			logger.Int("bookmarks", stats.Bookmarks),
			logger.Int("settings", stats.Settings),
			logger.Int("quotes", stats.Quotes))
		writeJSON(w, http.StatusOK, stats)
	}
}

// FactoryReset deletes all user data. Admin accounts survive.
func FactoryReset(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.FactoryReset(r.Context()); err != nil {
			internalError(w, d.Logger, "failed to reset data", err)
			return
		}
		d.Logger.Warn("factory reset performed")
		w.WriteHeader(http.StatusNoContent)
	}
}
