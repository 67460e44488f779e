package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/store/sqlite"
)

type bookmarkRequest struct {
	Title       *string          `json:"title"`
	URL         *string          `json:"url"`
	Description *string          `json:"description"`
	Tags        *[]string        `json:"tags"`
	Favicon     *string          `json:"favicon"`
	Icon        *string          `json:"icon"`
	IconURL     *string          `json:"iconUrl"`
	Category    optional[string] `json:"category"`
	IsPinned    *bool            `json:"isPinned"`
	IsReadLater *bool            `json:"isReadLater"`
	IsRead      *bool            `json:"isRead"`
}

// categoryRef normalises the category field: "" means none.
func (req bookmarkRequest) categoryRef() *string {
	if req.Category.Value == nil || strings.TrimSpace(*req.Category.Value) == "" {
		return nil
	}
	id := strings.TrimSpace(*req.Category.Value)
	return &id
}

// ListBookmarks returns bookmarks in display order, or ranked by relevance when q is set.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pinned, err := queryBool(r, "pinned")
		if err != nil {
			writeError(w, http.StatusBadRequest, "pinned must be a boolean")
			return
		}
		readLater, err := queryBool(r, "readLater")
		if err != nil {
			writeError(w, http.StatusBadRequest, "readLater must be a boolean")
			return
		}

		bookmarks, err := d.Store.ListBookmarksFiltered(r.Context(), sqlite.BookmarkFilter{
			CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
			Pinned:     pinned,
			ReadLater:  readLater,
		})
		if err != nil {
			internalError(w, d.Logger, "failed to list bookmarks", err)
			return
		}

		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			bookmarks = domain.SearchBookmarks(q, bookmarks)
		}
		writeJSON(w, http.StatusOK, orEmpty(bookmarks))
	}
}

// GetBookmark returns one bookmark.
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Store.GetBookmark(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to load bookmark", err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// CreateBookmark stores a new bookmark at the end of the list.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		if req.URL == nil || !validWebURL(*req.URL) {
			writeError(w, http.StatusBadRequest, "a valid http(s) url is required")
			return
		}

		category := req.categoryRef()
		if ok := categoryExists(r.Context(), w, d, category); !ok {
			return
		}

		b := domain.Bookmark{
			Title:       strings.TrimSpace(*req.Title),
			URL:         strings.TrimSpace(*req.URL),
			Description: deref(req.Description),
			Favicon:     deref(req.Favicon),
			Icon:        deref(req.Icon),
			IconURL:     deref(req.IconURL),
			Category:    category,
			IsPinned:    derefBool(req.IsPinned),
			IsReadLater: derefBool(req.IsReadLater),
			IsRead:      derefBool(req.IsRead),
		}
		if req.Tags != nil {
			b.Tags = *req.Tags
		}

		created, err := d.Store.CreateBookmark(r.Context(), b)
		if err != nil {
			internalError(w, d.Logger, "failed to create bookmark", err)
			return
		}
		d.Logger.Info("bookmark created",
			logger.String("id", created.ID),
			logger.String("url", created.URL))
		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateBookmark applies a partial update. A null category uncategorises.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		if req.URL != nil && !validWebURL(*req.URL) {
			writeError(w, http.StatusBadRequest, "a valid http(s) url is required")
			return
		}

		patch := sqlite.BookmarkPatch{
			Title:       trimmed(req.Title),
			URL:         trimmed(req.URL),
			Description: req.Description,
			Tags:        req.Tags,
			Favicon:     req.Favicon,
			Icon:        req.Icon,
			IconURL:     req.IconURL,
			IsPinned:    req.IsPinned,
			IsReadLater: req.IsReadLater,
			IsRead:      req.IsRead,
		}
		if req.Category.Set {
			patch.SetCategory = true
			patch.Category = req.categoryRef()
			if ok := categoryExists(r.Context(), w, d, patch.Category); !ok {
				return
			}
		}

		b, err := d.Store.UpdateBookmark(r.Context(), chi.URLParam(r, "id"), patch)
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to update bookmark", err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// DeleteBookmark removes a bookmark.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := d.Store.DeleteBookmark(r.Context(), id)
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to delete bookmark", err)
			return
		}
		d.Logger.Info("bookmark deleted", logger.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReorderBookmarks sets the display order to the position of each id in the body.
func ReorderBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil || len(req.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "ids must be a non-empty array")
			return
		}
		if err := d.Store.ReorderBookmarks(r.Context(), req.IDs); err != nil {
			internalError(w, d.Logger, "failed to reorder bookmarks", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// categoryExists answers 400 and returns false when id names no category.
func categoryExists(ctx context.Context, w http.ResponseWriter, d deps.Deps, id *string) bool {
	if id == nil {
		return true
	}
	_, err := d.Store.GetCategory(ctx, *id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "unknown category")
		return false
	}
	if err != nil {
		internalError(w, d.Logger, "failed to load category", err)
		return false
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
