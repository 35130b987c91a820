package dto

import "net/http"

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeValidation is used for request binding failures
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeInvalidCredentials is used when ERPNext rejects the operator's login
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeSessionNotFound is used when a billing session is unknown or expired
	ErrCodeSessionNotFound = "SESSION_NOT_FOUND"
	// ErrCodeLineNotFound is used when a bill line is unknown
	ErrCodeLineNotFound = "LINE_NOT_FOUND"
)

// Bill submission error codes
const (
	// ErrCodeMissingField is used when a required header field is empty
	ErrCodeMissingField = "MISSING_FIELD"
	// ErrCodeInvalidDepartment is used when the department is empty or unknown
	ErrCodeInvalidDepartment = "INVALID_DEPARTMENT"
	// ErrCodeNoValidItems is used when no bill line carries an item
	ErrCodeNoValidItems = "NO_VALID_ITEMS"
	// ErrCodeQuantityExceedsStock is used when a sale quantity exceeds available stock
	ErrCodeQuantityExceedsStock = "QUANTITY_EXCEEDS_STOCK"
	// ErrCodeExternalFailure is used when ERPNext rejects or cannot be reached
	ErrCodeExternalFailure = "EXTERNAL_FAILURE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Auth errors -> 401 Unauthorized
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,

	// Resource errors -> 404 Not Found
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeLineNotFound:    http.StatusNotFound,

	// Submission rule failures -> 422 Unprocessable Entity
	ErrCodeMissingField:         http.StatusUnprocessableEntity,
	ErrCodeInvalidDepartment:    http.StatusUnprocessableEntity,
	ErrCodeNoValidItems:         http.StatusUnprocessableEntity,
	ErrCodeQuantityExceedsStock: http.StatusUnprocessableEntity,

	// Upstream failures -> 502 Bad Gateway
	ErrCodeExternalFailure: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
