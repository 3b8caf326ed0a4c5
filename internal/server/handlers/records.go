package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shellhist/syncd/internal/server/models"
)

func (h *Handler) addRecords(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var records []models.Record
	if err := decodeJSON(r, &records); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.records.Add(r.Context(), user, records); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// nextRecords drains one (host, tag) stream. Query parameters: host, tag,
// start (optional cursor, defaults to 0), count.
func (h *Handler) nextRecords(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	q := r.URL.Query()

	host, err := uuid.Parse(q.Get("host"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid host")
		return
	}

	tag := q.Get("tag")
	if tag == "" {
		respondError(w, http.StatusBadRequest, "tag is required")
		return
	}

	var start *uint64
	if raw := q.Get("start"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start")
			return
		}
		start = &v
	}

	count, _ := strconv.ParseUint(q.Get("count"), 10, 64)

	records, err := h.records.Next(r.Context(), user, host, tag, start, count)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if records == nil {
		records = []models.Record{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *Handler) recordStatus(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	status, err := h.records.Status(r.Context(), user)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
