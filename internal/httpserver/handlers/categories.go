package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/store/sqlite"
)

type categoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := d.Store.ListCategories(r.Context())
		if err != nil {
			internalError(w, d.Logger, "failed to list categories", err)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(categories))
	}
}

func CreateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		c, err := d.Store.CreateCategory(r.Context(), domain.Category{
			Name:  strings.TrimSpace(*req.Name),
			Icon:  deref(req.Icon),
			Color: deref(req.Color),
		})
		if err != nil {
			internalError(w, d.Logger, "failed to create category", err)
			return
		}
		d.Logger.Info("category created", logger.String("id", c.ID), logger.String("name", c.Name))
		writeJSON(w, http.StatusCreated, c)
	}
}

func UpdateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}

		c, err := d.Store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), sqlite.CategoryPatch{
			Name:  trimmed(req.Name),
			Icon:  req.Icon,
			Color: req.Color,
		})
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to update category", err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DeleteCategory removes a category; its bookmarks become uncategorised.
func DeleteCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := d.Store.DeleteCategory(r.Context(), id)
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to delete category", err)
			return
		}
		d.Logger.Info("category deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func ReorderCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil || len(req.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "ids must be a non-empty array")
			return
		}
		if err := d.Store.ReorderCategories(r.Context(), req.IDs); err != nil {
			internalError(w, d.Logger, "failed to reorder categories", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
