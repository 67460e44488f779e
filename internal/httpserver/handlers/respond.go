package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nowen/nowen/internal/logger"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

var errEmptyBody = errors.New("empty body")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// internalError logs err and answers 500 with a generic message.
func internalError(w http.ResponseWriter, log logger.Logger, msg string, err error) {
	log.Error(msg, logger.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

// decodeJSON reads at most limit bytes of JSON into v.
// An empty body returns errEmptyBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}
