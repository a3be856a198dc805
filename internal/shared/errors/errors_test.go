package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_KindsAndStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		kind     ErrorKind
		wantCode int
	}{
		{"validation", NewValidationError("bad input"), KindValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("missing"), KindNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("taken"), KindConflict, http.StatusConflict},
		{"invalid transaction", NewInvalidTransactionError("wrong address"), KindInvalidTransaction, http.StatusUnprocessableEntity},
		{"expired", NewExpiredError("window closed"), KindExpired, http.StatusGone},
		{"unauthorized", NewUnauthorizedError("bad proof"), KindUnauthorized, http.StatusUnauthorized},
		{"unavailable", NewUnavailableError("chain down"), KindUnavailable, http.StatusServiceUnavailable},
		{"rate unavailable", NewRateUnavailableError("oracle down"), KindRateUnavailable, http.StatusServiceUnavailable},
		{"already claimed", NewAlreadyClaimedError("claimed"), KindAlreadyClaimed, http.StatusConflict},
		{"invalid state", NewInvalidStateError("not revealed"), KindInvalidState, http.StatusConflict},
		{"contention", NewContentionError("busy"), KindContention, http.StatusConflict},
		{"internal", NewInternalError("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantCode, HTTPStatus(tt.err))
			assert.True(t, IsKind(tt.err, tt.kind))
		})
	}
}

func TestAppError_DetailsInMessage(t *testing.T) {
	err := NewValidationError("unsupported currency", "DOGE")
	assert.Contains(t, err.Error(), "unsupported currency")
	assert.Contains(t, err.Error(), "DOGE")

	bare := NewValidationError("unsupported currency")
	assert.NotContains(t, bare.Error(), "()")
}

func TestAppError_WrappedDetection(t *testing.T) {
	wrapped := fmt.Errorf("outer context: %w", NewExpiredError("window closed"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsExpiredError(wrapped))
	assert.Equal(t, http.StatusGone, HTTPStatus(wrapped))
}

func TestNonAppError(t *testing.T) {
	plain := fmt.Errorf("plain failure")

	assert.False(t, IsAppError(plain))
	assert.Nil(t, GetAppError(plain))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(plain))
}
