package route

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cadence/src-server/recurring"
	"cadence/src-server/service"
	"cadence/src-server/utils"
)

type OwnerCtxKeyType string

const (
	OwnerCtxKey    OwnerCtxKeyType = "owner"
	OwnerHeaderKey string          = "X-Owner-ID"
)

// OwnerMiddleware rejects requests without an owner header and passes the
// owner id down in the request context.
func OwnerMiddleware(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeaderKey))
		if owner == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(OwnerHeaderKey + " header not found"))
			return
		}
		ctx := context.WithValue(r.Context(), OwnerCtxKey, owner)
		next(w, r.WithContext(ctx))
	}
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(OwnerCtxKey).(string)
	return owner
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("can't encode response body", "error", err)
	}
}

// writeError maps service errors onto status codes. Anything unknown is a
// 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, service.ErrCandidateNotFound), errors.Is(err, service.ErrSeriesNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrCandidateNotPending), errors.Is(err, service.ErrNoEvents):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrDateNotInSeries), errors.Is(err, utils.ErrUnreadableDate):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, recurring.ErrMalformedRule), errors.Is(err, recurring.ErrUnsupportedFrequency):
		message = recurring.ErrMalformedRule.Error()
		slog.Error("stored recurrence rule is corrupt", "path", r.URL.Path, "error", err)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
