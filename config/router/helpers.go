package router

import (
	"net/http"

	"github.com/akeren/crpt-gateway/internal/log"
	apperrors "github.com/akeren/crpt-gateway/pkg/errors"
	"github.com/google/uuid"
)

// GetLogger returns the correlated logger injected for this request.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusOK, Data: data, Message: message}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusBadRequest, Data: payload, Message: message}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{StatusCode: http.StatusTooManyRequests, Data: data, Message: "Too Many Requests"}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

// AppErrorResult maps an application error to its HTTP status. Messages of errors that are not
// *apperrors.AppError are replaced with a generic one.
func AppErrorResult(err error) *ServiceResult {
	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), nil)
}

// ParseUUIDParam reads a path parameter that must be a UUID.
func ParseUUIDParam(ctx *RequestContext, paramName string) (uuid.UUID, *ServiceResult) {
	raw := ctx.Param(paramName)
	id, err := uuid.Parse(raw)
	if err != nil {
		GetLogger(ctx).Warn("Invalid UUID path parameter", "param", paramName, "value", raw)
		return uuid.Nil, BadRequestResult("Invalid "+paramName+" parameter", nil)
	}
	return id, nil
}
