package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Account not found")
		assert.Equal(t, "NOT_FOUND: Account not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeStorage, "Storage error", cause)
		assert.Contains(t, err.Error(), "STORAGE_ERROR")
		assert.Contains(t, err.Error(), "Storage error")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "email", "reason": "missing @"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Validation", func() *AppError { return Validation("test") }, ErrCodeValidation},
		{"DuplicateAccount", func() *AppError { return DuplicateAccount() }, ErrCodeDuplicateAccount},
		{"AuthenticationFailed", func() *AppError { return AuthenticationFailed() }, ErrCodeAuthentication},
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"NotFound", func() *AppError { return NotFound("Account") }, ErrCodeNotFound},
		{"UsageLimitExceeded", func() *AppError { return UsageLimitExceeded() }, ErrCodeUsageLimitExceeded},
		{"InferenceRequest", func() *AppError { return InferenceRequest(errors.New("boom")) }, ErrCodeInferenceRequest},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
		{"Storage", func() *AppError { return Storage(errors.New("boom")) }, ErrCodeStorage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestAuthenticationFailed(t *testing.T) {
	t.Run("does not leak which credential was wrong", func(t *testing.T) {
		err := AuthenticationFailed()
		assert.Equal(t, "Invalid email or password", err.Message)
	})
}

func TestIsAppError(t *testing.T) {
	t.Run("returns true for AppError", func(t *testing.T) {
		err := Validation("bad input")
		assert.True(t, IsAppError(err))
	})

	t.Run("returns true for wrapped AppError", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", DuplicateAccount())
		assert.True(t, IsAppError(err))
	})

	t.Run("returns false for plain error", func(t *testing.T) {
		assert.False(t, IsAppError(errors.New("plain")))
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		assert.Equal(t, ErrCodeUsageLimitExceeded, GetCode(UsageLimitExceeded()))
	})

	t.Run("returns internal for unknown error", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}
