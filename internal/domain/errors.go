package domain

import "fmt"

// Error codes surfaced to callers. Only validation, rate limiting and
// timeouts are reported distinctly; everything else collapses into
// CodeInternal with a user-safe message.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeRateLimit  = "RATE_LIMITED"
	CodeTimeout    = "TIMEOUT"
	CodeInternal   = "INTERNAL_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error, retryable bool) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// Common domain errors
var (
	ErrInvalidURL = &DomainError{
		Code:      CodeValidation,
		Message:   "The provided URL is invalid",
		Retryable: false,
	}

	ErrUnsupportedPlatform = &DomainError{
		Code:      CodeValidation,
		Message:   "The URL does not belong to a supported platform",
		Retryable: false,
	}

	ErrRateLimited = &DomainError{
		Code:      CodeRateLimit,
		Message:   "Too many requests, try again later",
		Retryable: true,
	}

	ErrTimedOut = &DomainError{
		Code:      CodeTimeout,
		Message:   "The download request timed out",
		Retryable: true,
	}
)
