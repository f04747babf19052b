package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Accounts
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicateAccount ErrorCode = "DUPLICATE_ACCOUNT"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Quota
	ErrCodeUsageLimitExceeded ErrorCode = "USAGE_LIMIT_EXCEEDED"

	// Inference
	ErrCodeInferenceRequest ErrorCode = "INFERENCE_REQUEST_ERROR"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorage  ErrorCode = "STORAGE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// DuplicateAccount signals a registration attempt with an email that is
// already taken.
func DuplicateAccount() *AppError {
	return New(ErrCodeDuplicateAccount, "Email already registered")
}

// AuthenticationFailed deliberately does not distinguish an unknown email
// from a wrong password.
func AuthenticationFailed() *AppError {
	return New(ErrCodeAuthentication, "Invalid email or password")
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func UsageLimitExceeded() *AppError {
	return New(ErrCodeUsageLimitExceeded, "Monthly free detection limit reached")
}

func InferenceRequest(cause error) *AppError {
	return Wrap(ErrCodeInferenceRequest, "Inference request failed", cause)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Storage(cause error) *AppError {
	return Wrap(ErrCodeStorage, "Storage error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
