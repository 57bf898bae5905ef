package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS": http.StatusConflict,
	"ALREADY_PAID":   http.StatusConflict,

	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_MEMBER":           http.StatusBadRequest,
	"INVALID_AMOUNT":           http.StatusBadRequest,
	"INVALID_TRANSACTION_TYPE": http.StatusBadRequest,
	"VALIDATION_FAILED":        http.StatusBadRequest,

	"INSUFFICIENT_BALANCE": http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for a domain error code, falling
// back to 500 for codes it does not know
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
