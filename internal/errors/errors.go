package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes pipeline and transport failures.
type ErrorType string

const (
	// ErrorTypeInvalidImage means preprocessing could not decode or size the
	// source frame. Fatal to the task.
	ErrorTypeInvalidImage ErrorType = "invalid_image"
	// ErrorTypeProcessing is the catch-all for unexpected detector failure.
	// Fatal to the task.
	ErrorTypeProcessing ErrorType = "processing"
	// ErrorTypePlatform means a detection primitive is unavailable in the
	// current environment. Recoverable: the orchestrator substitutes a
	// deterministic fallback analysis instead of failing the task.
	ErrorTypePlatform ErrorType = "platform"
	// ErrorTypeTimeout means a pipeline stage exceeded its configured budget.
	ErrorTypeTimeout ErrorType = "timeout"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError is a structured application error carrying a category and the HTTP
// status the transport layer should map it to.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInvalidImageError reports an undecodable or degenerate source frame.
func NewInvalidImageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidImage,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewProcessingError reports an unexpected failure inside the pipeline.
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewPlatformError reports a missing detection primitive. Callers are expected
// to degrade to the synthetic fallback analysis rather than surface this.
func NewPlatformError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePlatform,
		Message:    message,
		StatusCode: http.StatusNotImplemented,
		Cause:      cause,
	}
}

// NewTimeoutError reports a stage that exceeded its configured budget.
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewValidationError reports a malformed request or argument.
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError reports a failure fetching a remote image.
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewInternalError reports an unexpected internal failure.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error, defaulting to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
