package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType categorizes a failed exchange call.
type ErrorType int

// Error type constants map HTTP-level failures onto a stable taxonomy.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a transport-level connectivity failure.
	ErrorTypeNetwork
	// ErrorTypeAuthentication indicates a bad or expired signature or key (401).
	ErrorTypeAuthentication
	// ErrorTypePermission indicates the key lacks the required scope (403).
	ErrorTypePermission
	// ErrorTypeBadRequest indicates invalid request parameters (400/404).
	ErrorTypeBadRequest
	// ErrorTypeRateLimit indicates the request rate limit was exceeded (429).
	ErrorTypeRateLimit
	// ErrorTypeExchange indicates an opaque upstream failure (5xx or an
	// unrecognized non-2xx status).
	ErrorTypeExchange
	// ErrorTypeOrderNotFound indicates an order lookup returned no result.
	ErrorTypeOrderNotFound
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"AUTHENTICATION",
		"PERMISSION_DENIED",
		"BAD_REQUEST",
		"RATE_LIMIT",
		"EXCHANGE",
		"ORDER_NOT_FOUND",
	}[t]
}

// ErrorTypeFromStatus maps an HTTP status code onto the error taxonomy.
func ErrorTypeFromStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case status == http.StatusForbidden:
		return ErrorTypePermission
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		return ErrorTypeBadRequest
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	default:
		return ErrorTypeExchange
	}
}

// Sentinel errors raised locally, before any network call is made.
var (
	// ErrUnknownOperation is returned when an operation is not registered
	// in the endpoint table.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrMissingParam is returned when a path template placeholder has no
	// supplied value.
	ErrMissingParam = errors.New("missing template parameter")
	// ErrNoCredentials is returned when a private operation is attempted
	// without API credentials.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrNoAPIKey is returned when the key ring has no usable key.
	ErrNoAPIKey = errors.New("no available API key")
	// ErrClientClosed is returned when using a closed HTTP client.
	ErrClientClosed = errors.New("client is closed")
)

// ExchangeError is a structured error produced from a failed exchange call.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code of the response, when applicable.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code, when the payload carries one.
	Code string `json:"code,omitempty"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Raw holds the original error payload for debugging.
	Raw any `json:"raw,omitempty"`
	// Exchange identifies the connector that produced the error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Exchange, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Exchange, e.Type, e.StatusCode, e.Message)
}

// WithCode returns the error with the exchange-specific code attached.
func (e *ExchangeError) WithCode(code string) *ExchangeError {
	e.Code = code
	return e
}

// WithRaw returns the error with the original payload attached.
func (e *ExchangeError) WithRaw(raw any) *ExchangeError {
	e.Raw = raw
	return e
}

// NewExchangeError creates an ExchangeError with the current timestamp.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewStatusError creates an ExchangeError whose type is derived from the
// HTTP status code.
func NewStatusError(exchange string, statusCode int, message string) *ExchangeError {
	return NewExchangeError(exchange, ErrorTypeFromStatus(statusCode), statusCode, message)
}

// IsAuthenticationError reports whether err is an authentication failure.
func IsAuthenticationError(err error) bool {
	return isErrorType(err, ErrorTypeAuthentication)
}

// IsPermissionError reports whether err is a permission failure.
func IsPermissionError(err error) bool {
	return isErrorType(err, ErrorTypePermission)
}

// IsBadRequestError reports whether err is a request validation failure.
func IsBadRequestError(err error) bool {
	return isErrorType(err, ErrorTypeBadRequest)
}

// IsRateLimitError reports whether err is a rate limit violation.
func IsRateLimitError(err error) bool {
	return isErrorType(err, ErrorTypeRateLimit)
}

// IsOrderNotFound reports whether err indicates an order lookup with no result.
func IsOrderNotFound(err error) bool {
	return isErrorType(err, ErrorTypeOrderNotFound)
}

// IsExchangeError reports whether err is an opaque upstream failure.
func IsExchangeError(err error) bool {
	return isErrorType(err, ErrorTypeExchange)
}

func isErrorType(err error, t ErrorType) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Type == t
	}
	return false
}
