package dto

import (
	"net/http"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business rule violations answer 422, conflicts on resource state 409.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeCreditLimitExceeded: http.StatusUnprocessableEntity,
	shared.CodeUnitNotConfigured:   http.StatusUnprocessableEntity,
	shared.CodeInvalidState:        http.StatusUnprocessableEntity,
	shared.CodeAlreadyCancelled:    http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodePersistence:         http.StatusInternalServerError,

	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeInternal:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
