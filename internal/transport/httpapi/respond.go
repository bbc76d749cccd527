package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"glowbook/backend/internal/schedule"
	"glowbook/backend/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Conflicts are retryable: the caller should re-fetch slots and pick again.
func (s *Server) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *schedule.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		log.Info("conflict", slog.Any("err", err))
		writeError(w, http.StatusConflict, "That time is no longer available. Refresh the slots and pick again.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Warn("idempotency conflict", slog.Any("err", err))
		writeError(w, http.StatusConflict, "idempotency key was already used for a different booking")
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
