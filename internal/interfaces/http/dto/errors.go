package dto

import "net/http"

// API error codes. Domain errors carry the same codes, so the mapping
// below is shared by both layers.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodePreconditionFailed  = "PRECONDITION_FAILED"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodePreconditionFailed:  http.StatusPreconditionFailed,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeServiceUnavailable:  http.StatusServiceUnavailable,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
