package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures for the outer surfaces (HTTP, CLI)
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeUpstream   ErrorType = "upstream_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeExport     ErrorType = "export_error"
	ErrorTypeInternal   ErrorType = "internal_error"
)

// AppError is an application error with a stable code
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    codeFor(errType),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewUpstreamError wraps a failure of the remote text-generation service
func NewUpstreamError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstream, message, originalError)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewExportError creates an export error
func NewExportError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeExport, message, originalError)
}

// IsType reports whether err's chain holds an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// CodeOf returns the AppError code in err's chain, or INTERNAL_ERROR
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return codeFor(ErrorTypeInternal)
}

func codeFor(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "INVALID_REQUEST"
	case ErrorTypeUpstream:
		return "LLM_SERVICE_UNAVAILABLE"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeExport:
		return "EXPORT_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}
