package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dkim-labs/shopcore/internal/auth"
	"github.com/dkim-labs/shopcore/internal/inventory"
	"github.com/dkim-labs/shopcore/internal/order"
	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

// actorHandler is a handler that requires an authenticated actor
type actorHandler func(w http.ResponseWriter, r *http.Request, actor types.Actor)

// requireActor resolves the authenticated actor for a request. The
// authentication collaborator in front of this service sets X-User-ID;
// the role comes from the user record, never from the client.
func (h *Handler) requireActor(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
			return
		}

		user, err := h.store.GetActiveUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			h.writeError(w, r, err)
			return
		}

		next(w, r, types.Actor{ID: user.ID, Role: user.Role})
	}
}

// writeError translates an error kind into a response status
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrDenied):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, inventory.ErrSoldOut),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, storage.ErrInsufficientStock):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags every request with an id and logs its outcome
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		h.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
