package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shellhist/syncd/internal/common"
	"github.com/shellhist/syncd/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// authMiddleware resolves "Authorization: Token <value>" into a user via the
// sessions table and stores it in the request context. Requests without a
// valid token never reach the protected handlers.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(header, "Token ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}

		user, err := h.users.GetSessionUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			h.respondServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the authenticated user placed by authMiddleware.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// logMiddleware emits one structured line per request.
func (h *Handler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
