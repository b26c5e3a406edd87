// Package shared holds cross-cutting domain types used by every bounded
// context.
package shared

import "fmt"

// DomainError carries a stable machine-readable code alongside the message
// so the HTTP layer can map it to a status without string matching.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError from a code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorf builds a DomainError with a formatted message.
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "invalid input provided")
	ErrUpstreamUnavailable = NewDomainError("UPSTREAM_UNAVAILABLE", "upstream order platform unavailable")
)
