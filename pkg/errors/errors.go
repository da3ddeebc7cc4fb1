package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType classifies an error for callers that translate failures into
// their own protocol (HTTP status, queue retry policy, boolean result).
type ErrorType string

const (
	// Store errors
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeAlreadyExists    ErrorType = "ALREADY_EXISTS"
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"

	// Domain errors
	ErrorTypePreconditionMissing ErrorType = "PRECONDITION_MISSING"
	ErrorTypeNumeric             ErrorType = "NUMERIC_ERROR"
	ErrorTypeUnrecognizedKpi     ErrorType = "UNRECOGNIZED_KPI"

	// Application errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// AppError is the error value used across the repository and service layers.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewNotFoundError creates a not found error for a (partition, row) key.
func NewNotFoundError(resource, partition, row string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s (%s, %s) not found", resource, partition, row),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewAlreadyExistsError creates a conflict error for a (partition, row) key.
func NewAlreadyExistsError(resource, partition, row string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyExists,
		Message:    fmt.Sprintf("%s (%s, %s) already exists", resource, partition, row),
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewStoreUnavailableError wraps a transport or otherwise unmapped store failure.
func NewStoreUnavailableError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeStoreUnavailable,
		Message:    fmt.Sprintf("store operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusServiceUnavailable,
		StackTrace: captureStackTrace(),
	}
}

// NewPreconditionMissingError reports a missing input a computation depends on.
func NewPreconditionMissingError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypePreconditionMissing,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewNumericError reports an invalid numeric result (division by zero and friends).
func NewNumericError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNumeric,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewUnrecognizedKpiError reports a persisted KPI id that matches no known figure.
func NewUnrecognizedKpiError(kpiID string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnrecognizedKpi,
		Message:    fmt.Sprintf("unrecognized KPI type '%s'", kpiID),
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsAlreadyExists checks if an error is a key conflict error
func IsAlreadyExists(err error) bool {
	return IsType(err, ErrorTypeAlreadyExists)
}

// IsStoreUnavailable checks if an error is a transport failure
func IsStoreUnavailable(err error) bool {
	return IsType(err, ErrorTypeStoreUnavailable)
}

// IsPreconditionMissing checks if an error reports a missing computation input
func IsPreconditionMissing(err error) bool {
	return IsType(err, ErrorTypePreconditionMissing)
}

// IsNumeric checks if an error reports an invalid numeric result
func IsNumeric(err error) bool {
	return IsType(err, ErrorTypeNumeric)
}

// IsUnrecognizedKpi checks if an error reports an unknown KPI id
func IsUnrecognizedKpi(err error) bool {
	return IsType(err, ErrorTypeUnrecognizedKpi)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
