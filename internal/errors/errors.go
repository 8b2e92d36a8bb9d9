// Package errors provides error types and handling for the smart-city API toolkit.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Auth represents authentication/authorization failures (401, 403).
	Auth
	// Fetch represents network/transport failures (DNS, connection, 5xx).
	Fetch
	// Timeout represents timeout errors.
	Timeout
	// Parse represents parsing errors (HTML pages, stored documents).
	Parse
	// NotFound represents unknown identifiers or entity types (404).
	NotFound
	// RateLimit represents rate limiting (429 or exhausted quota).
	RateLimit
	// Validation represents invalid caller-supplied query parameters.
	Validation
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Auth:
		return "auth"
	case Fetch:
		return "fetch"
	case Timeout:
		return "timeout"
	case Parse:
		return "parse"
	case NotFound:
		return "not_found"
	case RateLimit:
		return "rate_limit"
	case Validation:
		return "validation"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsRetryable returns whether errors of this type may be retried by the
// caller. Rate-limited calls are never retryable here; the caller must
// back off using the advertised reset information first.
func (t ErrorType) IsRetryable() bool {
	switch t {
	case Fetch, Timeout:
		return true
	default:
		return false
	}
}

// APIError represents a categorized error from the catalog or entity API.
type APIError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new APIError.
func New(errType ErrorType, url, operation, message string, cause error) *APIError {
	return &APIError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errType.IsRetryable(),
	}
}

// NewAuthError creates an authentication error.
func NewAuthError(url string, statusCode int, message string) *APIError {
	err := New(Auth, url, "request", message, nil)
	err.StatusCode = statusCode
	return err
}

// NewFetchError creates a network/transport error.
func NewFetchError(url, operation string, cause error) *APIError {
	return New(Fetch, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *APIError {
	return New(Timeout, url, operation, "request timed out", cause)
}

// NewParseError creates a parse error.
func NewParseError(url, operation string, cause error) *APIError {
	return New(Parse, url, operation, "parsing failed", cause)
}

// NewNotFoundError creates a not-found error with a hint for the caller.
func NewNotFoundError(url, subject string) *APIError {
	err := New(NotFound, url, "request",
		fmt.Sprintf("%s not found; check spelling or re-scrape the catalog", subject), nil)
	err.StatusCode = 404
	return err
}

// NewRateLimitError creates a rate-limit error carrying the advertised
// remaining/reset values verbatim.
func NewRateLimitError(url, remaining, reset string) *APIError {
	err := New(RateLimit, url, "request",
		fmt.Sprintf("rate limited (remaining: %s, reset: %s); back off before retrying", remaining, reset), nil)
	err.StatusCode = 429
	return err
}

// NewValidationError creates a validation error. Raised before any
// network call is made.
func NewValidationError(operation, message string) *APIError {
	return New(Validation, "", operation, message, nil)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *APIError {
	return New(Cancelled, url, operation, "operation cancelled", nil)
}

// NewServerError creates a fetch-kind error for 5xx responses.
func NewServerError(url string, statusCode int) *APIError {
	err := New(Fetch, url, "request", fmt.Sprintf("server returned %d", statusCode), nil)
	err.StatusCode = statusCode
	return err
}

// Categorize determines the error type from a generic transport error.
func Categorize(err error, url string) *APIError {
	if err == nil {
		return nil
	}

	// Already an APIError
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "request")
	}

	if isTimeout(err) {
		return NewTimeoutError(url, "request", err)
	}

	if isNetworkError(err) {
		return NewFetchError(url, "request", err)
	}

	return New(Unknown, url, "request", err.Error(), err)
}

// CategorizeHTTPStatus creates an error from an HTTP status code.
// Returns nil for 2xx/3xx responses.
func CategorizeHTTPStatus(statusCode int, url string) *APIError {
	switch {
	case statusCode == 401:
		return NewAuthError(url, statusCode, "unauthorized: check credentials")
	case statusCode == 403:
		return NewAuthError(url, statusCode, "forbidden: check key permissions and service settings")
	case statusCode == 404:
		return NewNotFoundError(url, "resource")
	case statusCode == 429:
		return NewRateLimitError(url, "0", "unknown")
	case statusCode >= 500:
		return NewServerError(url, statusCode)
	case statusCode >= 400:
		err := New(Fetch, url, "request", fmt.Sprintf("client error %d", statusCode), nil)
		err.StatusCode = statusCode
		err.Retryable = false
		return err
	default:
		return nil
	}
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// IsRetryable checks if an error should be retried by the caller.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}

	return isTimeout(err) || isNetworkError(err)
}

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == Auth
	}
	return false
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == NotFound
	}
	return false
}

// IsRateLimitError checks if an error is rate limiting.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == RateLimit
	}
	return false
}

// IsValidationError checks if an error is a parameter validation failure.
func IsValidationError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == Validation
	}
	return false
}

// GetStatusCode extracts the status code from an error.
func GetStatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return Unknown
}
