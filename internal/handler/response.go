package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/socialgraph/internal/apperror"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Detail string `json:"detail"`          // Human-readable description
	Field  string `json:"field,omitempty"` // Offending input field, when known
}

// DetailResponse is a bare confirmation message.
type DetailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each error kind to its status code and machine-readable name.
var errorKinds = []struct {
	target error
	status int
	name   string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrInvalidOTP, http.StatusBadRequest, "invalid_otp"},
	{apperror.ErrExpiredOTP, http.StatusBadRequest, "expired_otp"},
	{apperror.ErrEmailRegistered, http.StatusBadRequest, "email_registered"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrDuplicate, http.StatusConflict, "duplicate_request"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrTransient, http.StatusServiceUnavailable, "service_unavailable"},
}

// writeError translates err into an HTTP response. AppErrors expose their
// client-safe Message; anything else is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if !errors.Is(err, k.target) {
				continue
			}
			if k.status >= http.StatusInternalServerError {
				logger.Warn("request failed", slog.String("kind", k.name), slog.String("error", err.Error()))
				w.Header().Set("Retry-After", "1")
			}
			writeJSON(w, logger, k.status, ErrorResponse{
				Error:  k.name,
				Detail: appErr.Message,
				Field:  appErr.Field,
			})
			return
		}
	}

	logger.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error:  "internal_error",
		Detail: "An internal error occurred",
	})
}
