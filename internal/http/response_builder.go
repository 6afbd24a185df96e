package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"

	"homeexpenses/internal/ingest"
	"homeexpenses/internal/log"
	"homeexpenses/internal/middleware/trace"
	"homeexpenses/internal/services"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorBody{
		Error:     msg,
		Status:    status,
		RequestID: w.Header().Get(trace.HeaderRequestID),
	})
}

// errorStatus maps a service error to its response status. Client errors
// carry their message; anything else is reported as an internal error.
func errorStatus(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	var parseErr *csv.ParseError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, errNoFiles), errors.Is(err, errBadUpload):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ingest.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, ingest.ErrNoExpenses):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrExpenseNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeServiceError logs err and answers with its mapped status.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err).ToSlice()
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields...)
	}
	writeError(w, status, msg)
}
