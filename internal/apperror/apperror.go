// Package apperror defines the error kinds shared by every layer.
//
// ERROR KINDS:
// Each kind is a sentinel error. Services and repositories return an *AppError
// that wraps one sentinel, so callers classify with errors.Is and the HTTP
// layer maps the kind to a status code:
//
//	ErrValidation      → 400   ErrInvalidOTP  → 400   ErrExpiredOTP → 400
//	ErrEmailRegistered → 400   ErrDuplicate   → 409   ErrConflict   → 409
//	ErrForbidden       → 403   ErrNotFound    → 404   ErrUnauthorized → 401
//	ErrTransient       → 503
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrExpiredOTP      = errors.New("expired otp")
	ErrEmailRegistered = errors.New("email already registered")
	ErrDuplicate       = errors.New("duplicate request")
	ErrTransient       = errors.New("transient store failure")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message, safe to return to clients
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure, kept for logs only
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned for failed logins and unusable refresh tokens.
// The message is deliberately the same for every cause.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidOTP means no unverified challenge matches the (email, code) pair.
func InvalidOTP() *AppError {
	return &AppError{
		Err:     ErrInvalidOTP,
		Message: "invalid or already used code",
		Field:   "otp",
	}
}

// ExpiredOTP means the challenge matched but its expiry has passed.
func ExpiredOTP() *AppError {
	return &AppError{
		Err:     ErrExpiredOTP,
		Message: "code has expired, request a new one",
		Field:   "otp",
	}
}

func EmailAlreadyRegistered(email string) *AppError {
	return &AppError{
		Err:     ErrEmailRegistered,
		Message: fmt.Sprintf("email %s is already registered", email),
		Field:   "email",
	}
}

// Duplicate signals that a uniqueness constraint rejected a second copy of
// a record, e.g. a repeated friend request for the same ordered pair.
func Duplicate(message string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: message,
	}
}

// Transient wraps a store failure that may succeed on retry (lock contention,
// deadline exceeded). Nothing in this codebase retries it automatically.
func Transient(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrTransient,
		Message: fmt.Sprintf("%s: storage temporarily unavailable", op),
		Cause:   cause,
	}
}
