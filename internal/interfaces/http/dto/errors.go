package dto

import "net/http"

// Error codes follow ERR_<CATEGORY>_<DESCRIPTION>. The code, not the HTTP
// status, is the contract clients should branch on.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeInvalidPayload marks a raw order payload that cannot be parsed.
	ErrCodeInvalidPayload = "ERR_INVALID_PAYLOAD"
	// ErrCodeRequestTooLarge marks a request body over the configured limit.
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	// ErrCodeUpstreamUnavailable means the order platform cannot be reached.
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
	// ErrCodeUpstreamRejected means the order platform rejected a request.
	ErrCodeUpstreamRejected = "ERR_UPSTREAM_REJECTED"
	// ErrCodeQueueFull means the sync job queue cannot accept more work.
	ErrCodeQueueFull = "ERR_QUEUE_FULL"
	// ErrCodeSyncDisabled means background sync is not configured.
	ErrCodeSyncDisabled = "ERR_SYNC_DISABLED"
)

var errorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidPayload:  http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
	ErrCodeUpstreamRejected:    http.StatusBadGateway,
	ErrCodeQueueFull:           http.StatusServiceUnavailable,
	ErrCodeSyncDisabled:        http.StatusServiceUnavailable,
}

// GetHTTPStatus maps an error code to its HTTP status. Unknown codes map
// to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeAliases translates bare domain error codes into the ERR_ form.
var domainCodeAliases = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UPSTREAM_UNAVAILABLE": ErrCodeUpstreamUnavailable,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the ERR_ form,
// passing through codes it does not recognize.
func NormalizeErrorCode(code string) string {
	if normalized, ok := domainCodeAliases[code]; ok {
		return normalized
	}
	return code
}
