// FilePath: server/dashboard/internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/analytics"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeDatabase         ErrorType = "database"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeUnavailable      ErrorType = "service_unavailable"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error to errors.Is and errors.As
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewInsufficientDataError creates an error for comparisons without history
func NewInsufficientDataError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInsufficientData,
		Message: msg,
		Code:    http.StatusUnprocessableEntity,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewUnavailableError creates a new service unavailable error
func NewUnavailableError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUnavailable,
		Message: msg,
		Code:    http.StatusServiceUnavailable,
		err:     err,
	}
}

// From converts any error into an APIError, keeping existing APIErrors as-is
// and mapping analytics failures onto their API counterparts.
func From(msg string, err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case stderrors.Is(err, analytics.ErrInvalidInput), stderrors.Is(err, analytics.ErrNaiveTimestamp):
		return NewValidationError(msg, err)
	case stderrors.Is(err, analytics.ErrNoBaselineData):
		return NewInsufficientDataError(msg, err)
	}
	return NewInternalError(msg, err)
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeValidation
	}
	return false
}
