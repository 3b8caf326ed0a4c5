// Package handlers exposes the sync server over HTTP: registration and login,
// the legacy history sync endpoints, and the generic record sync endpoints.
// Handlers stay thin; all storage semantics live in the services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/logging"
	"github.com/shellhist/syncd/internal/server/services"
)

// Handler carries the services and logger the HTTP endpoints use.
type Handler struct {
	users   *services.UserService
	history *services.HistoryService
	records *services.RecordService
	logger  logging.Logger
	version string
}

func NewHandler(us *services.UserService, hs *services.HistoryService, rs *services.RecordService, l logging.Logger, version string) *Handler {
	return &Handler{
		users:   us,
		history: hs,
		records: rs,
		logger:  l.With("component", "http"),
		version: version,
	}
}

type errorResponse struct {
	Reason string `json:"reason"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, reason string) {
	respondJSON(w, status, errorResponse{Reason: reason})
}

// respondServiceError maps the two-kind error taxonomy onto HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrRegistrationClosed):
		respondError(w, http.StatusForbidden, "this server is not accepting new registrations")
	case errors.Is(err, common.ErrUsernameTaken):
		respondError(w, http.StatusConflict, "username already taken")
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
