package dto

import (
	"net/http"

	"github.com/granary/backend/internal/domain/shared"
)

// Error codes raised by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business rule rejections land on 422 so clients can tell a rule firing
// apart from a malformed request.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:            http.StatusNotFound,
	"ALREADY_EXISTS":               http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInvalidInput:        http.StatusBadRequest,
	shared.CodeUnauthorized:        http.StatusUnauthorized,
	shared.CodeForbidden:           http.StatusForbidden,

	shared.CodeCapacityExceeded:     http.StatusUnprocessableEntity,
	shared.CodeInsufficientCapacity: http.StatusUnprocessableEntity,
	shared.CodeExceedsStock:         http.StatusUnprocessableEntity,
	shared.CodeOverPayment:          http.StatusUnprocessableEntity,
	shared.CodeNothingToBill:        http.StatusUnprocessableEntity,
	shared.CodeExcessPayment:        http.StatusUnprocessableEntity,

	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes land on 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
