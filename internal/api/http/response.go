package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rental-backend/internal/domain"
	"rental-backend/internal/logger"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeInvalidDate       = "INVALID_DATE"
	CodeBusy              = "BUSY"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeInternal          = "INTERNAL_ERROR"
)

// retryAfterSeconds is sent with BUSY responses.
const retryAfterSeconds = "1"

type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps a service error onto a status code and error code.
// Unrecognized errors are reported without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "request_id", GetRequestIDFromContext(r.Context()), "error", err)
		msg = "internal server error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeErrorBody(w, r, status, code, msg)
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   msg,
		RequestID: GetRequestIDFromContext(r.Context()),
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, CodeIllegalTransition
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, CodeInvalidDate
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable, CodeBusy
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
