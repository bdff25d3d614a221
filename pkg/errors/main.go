// Package errors classifies gateway failures so handlers can map them to HTTP statuses and
// receipts can record what went wrong.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
	ErrorTypeRequestTimeout      = "REQUEST_TIMEOUT"
	ErrorTypeConfiguration       = "CONFIGURATION_ERROR"
	ErrorTypeTransport           = "TRANSPORT_ERROR"
	ErrorTypeUpstreamRejected    = "UPSTREAM_REJECTED"
)

// AppError carries a type, a message that is safe to show to API clients, and the internal cause.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *AppError {
	return newAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return newAppError(ErrorTypeInvalidRequest, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return newAppError(ErrorTypeDatabaseError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return newAppError(ErrorTypeConflict, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return newAppError(ErrorTypeInternalServerError, message, err)
}

// NewConfigurationError marks settings that make a component impossible to construct.
func NewConfigurationError(message string, err error) *AppError {
	return newAppError(ErrorTypeConfiguration, message, err)
}

// NewTransportError marks network, DNS, TLS or circuit-breaker failures while talking to the registration service.
func NewTransportError(message string, err error) *AppError {
	return newAppError(ErrorTypeTransport, message, err)
}

func NewRequestTimeoutError(message string, err error) *AppError {
	return newAppError(ErrorTypeRequestTimeout, message, err)
}

// GetErrorType returns "" for nil and ErrorTypeUnknown for errors outside this package.
func GetErrorType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

var duplicateKeyMarkers = []string{
	"duplicate key",
	"unique constraint",
	"sqlstate 23505",
}

// IsDuplicateKeyError recognises unique violations from drivers that do not translate them into
// gorm.ErrDuplicatedKey (postgres reports 23505, sqlite "UNIQUE constraint failed").
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if GetErrorType(err) == ErrorTypeConflict {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
