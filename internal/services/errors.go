package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ===============================
// ERROR TYPES
// ===============================

// ServiceError represents a structured service error. The Type values map
// onto the pipeline's failure taxonomy: validation and not-found errors are
// client-correctable, persistence errors are server faults, and artifact or
// notification errors are captured into the response instead of propagating
// once the award is committed.
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Fields     []FieldError           `json:"fields,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

// FieldError represents a single field validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error (client fault, 400)
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDetailedValidationError creates a validation error carrying
// field-level detail
func NewDetailedValidationError(message string, fields []FieldError) *ServiceError {
	return &ServiceError{
		Type:       "VALIDATION_ERROR",
		Message:    message,
		Fields:     fields,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error (client-correctable, 404)
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       "NOT_FOUND",
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewPersistenceError creates a datastore failure error (server fault, 500)
func NewPersistenceError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       "PERSISTENCE_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewArtifactError creates a certificate generation error. It is never
// surfaced as a request failure; the pipeline records it and degrades to an
// absent certificate URL.
func NewArtifactError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       "ARTIFACT_GENERATION_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError creates a generic internal server error
func NewInternalError(message string) *ServiceError {
	return &ServiceError{
		Type:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// ===============================
// ERROR UTILITIES
// ===============================

// GetServiceError extracts a ServiceError from an error, or wraps it in a
// generic internal error
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return &ServiceError{
		Type:       "INTERNAL_ERROR",
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
		Cause:      err,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Type == errorType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return IsErrorType(err, "NOT_FOUND")
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return IsErrorType(err, "VALIDATION_ERROR")
}

// IsPersistenceError checks if an error is a datastore failure
func IsPersistenceError(err error) bool {
	return IsErrorType(err, "PERSISTENCE_ERROR")
}
