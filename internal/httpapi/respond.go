package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"RfpIntel/internal/domain"
	"RfpIntel/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondErr maps known sentinels to client statuses and everything else
// to fallback.
func respondErr(w http.ResponseWriter, err error, fallback int) {
	respondError(w, statusFor(err, fallback), err.Error())
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownArtifactKind),
		errors.Is(err, domain.ErrReadOnlyArtifact),
		errors.Is(err, usecase.ErrEmptyFolderName),
		errors.Is(err, usecase.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, usecase.ErrDrainInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20))
	return dec.Decode(v)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
