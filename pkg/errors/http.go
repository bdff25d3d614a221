package errors

import (
	"errors"
	"net/http"
)

const genericMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeNotFound:            http.StatusNotFound,
	ErrorTypeInvalidRequest:      http.StatusBadRequest,
	ErrorTypeConflict:            http.StatusConflict,
	ErrorTypeRequestTimeout:      http.StatusRequestTimeout,
	ErrorTypeTransport:           http.StatusBadGateway,
	ErrorTypeUpstreamRejected:    http.StatusBadGateway,
	ErrorTypeConfiguration:       http.StatusServiceUnavailable,
	ErrorTypeDatabaseError:       http.StatusInternalServerError,
	ErrorTypeInternalServerError: http.StatusInternalServerError,
}

// HTTPStatusCode maps an error to the gateway's response status. Unclassified errors are 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message. Anything else, such as raw driver errors,
// is replaced so internals never reach API clients.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericMessage
}
