package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the HTTP routes. Registration, login and the public user
// lookup are open; everything else requires a session token.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(h.logMiddleware)

	r.Get("/", h.index)
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/user/{username}", h.getUser)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Delete("/account", h.deleteAccount)
		r.Post("/account/password", h.changePassword)

		r.Post("/history", h.addHistory)
		r.Delete("/history", h.deleteHistory)
		r.Get("/history/deleted", h.deletedHistory)
		r.Get("/sync/history", h.syncHistory)
		r.Get("/sync/count", h.countHistory)
		r.Get("/sync/count/range", h.countHistoryRange)
		r.Get("/sync/oldest", h.oldestHistory)

		r.Post("/record", h.addRecords)
		r.Get("/record", h.recordStatus)
		r.Get("/record/next", h.nextRecords)
	})

	return r
}
