package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"famledger/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error's kind to an HTTP status. Internal
// causes are logged, never sent to the client.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindInvalidState:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
		logger.Error("internal error", "error", err)
	}
	errorJSON(w, status, apperr.MessageOf(err))
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
