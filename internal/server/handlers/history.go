package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shellhist/syncd/internal/server/models"
)

type addHistoryEntry struct {
	ClientID  string    `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Data      string    `json:"data"`
}

func (h *Handler) addHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req []addHistoryEntry
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	entries := make([]models.NewHistory, 0, len(req))
	for _, e := range req {
		entries = append(entries, models.NewHistory{
			ClientID:  e.ClientID,
			UserID:    user.ID,
			Hostname:  e.Hostname,
			Timestamp: e.Timestamp,
			Data:      e.Data,
		})
	}

	if err := h.history.Add(r.Context(), entries); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type syncHistoryResponse struct {
	History []string `json:"history"`
}

// syncHistory pages non-deleted entries for the caller. Query parameters:
// sync_ts (server-insertion-time floor), history_ts (logical time floor),
// host (hostname to exclude), page_size.
func (h *Handler) syncHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	q := r.URL.Query()

	syncTS, err := parseTimeParam(q.Get("sync_ts"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sync_ts")
		return
	}
	historyTS, err := parseTimeParam(q.Get("history_ts"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid history_ts")
		return
	}

	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	entries, err := h.history.List(r.Context(), user, syncTS, historyTS, q.Get("host"), pageSize)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	data := make([]string, 0, len(entries))
	for _, e := range entries {
		data = append(data, e.Data)
	}

	respondJSON(w, http.StatusOK, syncHistoryResponse{History: data})
}

type deleteHistoryRequest struct {
	ClientID string `json:"client_id"`
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req deleteHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.history.Delete(r.Context(), user, req.ClientID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type deletedHistoryResponse struct {
	ClientIDs []string `json:"client_ids"`
}

func (h *Handler) deletedHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	ids, err := h.history.Deleted(r.Context(), user)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, deletedHistoryResponse{ClientIDs: ids})
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (h *Handler) countHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	count, err := h.history.Count(r.Context(), user)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, countResponse{Count: count})
}

// countHistoryRange counts entries in the half-open window [start, end).
func (h *Handler) countHistoryRange(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end")
		return
	}

	count, err := h.history.CountRange(r.Context(), user, start, end)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, countResponse{Count: count})
}

type oldestHistoryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Data      string    `json:"data"`
}

func (h *Handler) oldestHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	entry, err := h.history.Oldest(r.Context(), user)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, oldestHistoryResponse{
		Timestamp: entry.Timestamp,
		Hostname:  entry.Hostname,
		Data:      entry.Data,
	})
}

// parseTimeParam parses an RFC3339 query parameter, treating absence as the
// zero time (no floor).
func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
