package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cbztag/internal/cbz"
	"cbztag/internal/logging"
)

const kindBadRequest = "bad_request"

// requestError is a client mistake detected before any archive is touched.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// errorKind classifies err for the response body and the metrics label.
func errorKind(err error) string {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return kindBadRequest
	}
	return cbz.Kind(err)
}

func statusForKind(kind string) int {
	switch kind {
	case "not_found":
		return http.StatusNotFound
	case "parse":
		return http.StatusUnprocessableEntity
	case kindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errorKind(err)
	status := statusForKind(kind)
	logger := logging.WithContext(r.Context(), s.logger)
	attrs := []slog.Attr{
		logging.String("route", r.URL.Path),
		logging.String(logging.FieldErrorKind, kind),
		logging.Int("status", status),
		logging.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
	} else {
		logger.LogAttrs(r.Context(), slog.LevelDebug, "request rejected", attrs...)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}
