package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/store/sqlite"
)

type quoteRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

func ListQuotes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quotes, err := d.Store.ListQuotes(r.Context())
		if err != nil {
			internalError(w, d.Logger, "failed to list quotes", err)
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(quotes))
	}
}

func RandomQuote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := d.Store.RandomQuote(r.Context())
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no quotes")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to load quote", err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func CreateQuote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}

		q, err := d.Store.CreateQuote(r.Context(), content, strings.TrimSpace(req.Author))
		if err != nil {
			internalError(w, d.Logger, "failed to create quote", err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func DeleteQuote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Store.DeleteQuote(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		if err != nil {
			internalError(w, d.Logger, "failed to delete quote", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
