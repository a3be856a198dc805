// Package errors provides application-level error types and utilities.
// It defines the error kinds shared by the payment verifier and the
// disclosure engine: conflicts, invalid transactions, expiry, authorization
// failures, dependency outages, and store contention.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the kind of error
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation_error"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindInvalidTransaction ErrorKind = "invalid_transaction"
	KindExpired            ErrorKind = "expired"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindUnavailable        ErrorKind = "unavailable"
	KindRateUnavailable    ErrorKind = "rate_unavailable"
	KindAlreadyClaimed     ErrorKind = "already_claimed"
	KindInvalidState       ErrorKind = "invalid_state"
	KindContention         ErrorKind = "contention"
	KindInternal           ErrorKind = "internal_error"
)

// AppError represents an application error with additional context
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Kind:    kind,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(KindValidation, http.StatusBadRequest, message, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, message, details...)
}

// NewConflictError creates a new conflict error.
// Used for idempotency-key clashes and transaction-hash rebinding attempts.
func NewConflictError(message string, details ...string) *AppError {
	return newError(KindConflict, http.StatusConflict, message, details...)
}

// NewInvalidTransactionError signals an amount or destination mismatch.
// The intent is left untouched so the caller can resubmit the correct hash.
func NewInvalidTransactionError(message string, details ...string) *AppError {
	return newError(KindInvalidTransaction, http.StatusUnprocessableEntity, message, details...)
}

// NewExpiredError signals that the validity window has passed. Terminal.
func NewExpiredError(message string, details ...string) *AppError {
	return newError(KindExpired, http.StatusGone, message, details...)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newError(KindUnauthorized, http.StatusUnauthorized, message, details...)
}

// NewUnavailableError signals an external dependency outage. The caller
// should retry with backoff; the record's state is never changed by it.
func NewUnavailableError(message string, details ...string) *AppError {
	return newError(KindUnavailable, http.StatusServiceUnavailable, message, details...)
}

// NewRateUnavailableError signals that no exchange rate could be obtained.
func NewRateUnavailableError(message string, details ...string) *AppError {
	return newError(KindRateUnavailable, http.StatusServiceUnavailable, message, details...)
}

// NewAlreadyClaimedError signals a second claim on a claimed coupon.
func NewAlreadyClaimedError(message string, details ...string) *AppError {
	return newError(KindAlreadyClaimed, http.StatusConflict, message, details...)
}

// NewInvalidStateError signals a precondition violation such as
// claiming a coupon that was never revealed.
func NewInvalidStateError(message string, details ...string) *AppError {
	return newError(KindInvalidState, http.StatusConflict, message, details...)
}

// NewContentionError is surfaced after optimistic-write retries are exhausted.
func NewContentionError(message string, details ...string) *AppError {
	return newError(KindContention, http.StatusConflict, message, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newError(KindInternal, http.StatusInternalServerError, message, details...)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Kind == kind
}

func IsConflictError(err error) bool       { return IsKind(err, KindConflict) }
func IsNotFoundError(err error) bool       { return IsKind(err, KindNotFound) }
func IsValidationError(err error) bool     { return IsKind(err, KindValidation) }
func IsExpiredError(err error) bool        { return IsKind(err, KindExpired) }
func IsUnavailableError(err error) bool    { return IsKind(err, KindUnavailable) }
func IsContentionError(err error) bool     { return IsKind(err, KindContention) }
func IsAlreadyClaimedError(err error) bool { return IsKind(err, KindAlreadyClaimed) }

// HTTPStatus returns the HTTP status code for an error, defaulting to 500
// for anything that is not an AppError.
func HTTPStatus(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
