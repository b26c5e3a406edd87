package splitting

import "errors"

// Errors surfaced by the splitting pipeline. Fetch and payload errors are
// per-order and non-fatal to a batch run; callers skip, log, and continue.
var (
	// ErrSourceUnavailable indicates the order source could not be reached.
	ErrSourceUnavailable = errors.New("splitting: order source unavailable")
	// ErrSourceRequestFailed indicates the order source rejected a request.
	ErrSourceRequestFailed = errors.New("splitting: order source request failed")
	// ErrInvalidPayload indicates a raw order payload that cannot be parsed.
	ErrInvalidPayload = errors.New("splitting: invalid raw order payload")
	// ErrRawOrderNotFound indicates no stored snapshot for the requested order.
	ErrRawOrderNotFound = errors.New("splitting: raw order not found")
)
