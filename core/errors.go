package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrHTTP         = errors.New("http error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timeout")
	ErrNetwork      = errors.New("network error")
	ErrBusiness     = errors.New("business error")
	ErrUnknown      = errors.New("unknown error")
)

// Transport-level error codes carried by APIError.Code. Business failures
// carry the backend's numeric code as a string instead.
const (
	CodeHTTPError    = "HTTP_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTimeout      = "TIMEOUT"
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
)

// catalog holds the fixed user-facing messages for transport-level codes.
var catalog = map[string]string{
	CodeUnauthorized: "authentication required, please sign in again",
	CodeTimeout:      "request timed out",
	CodeNetworkError: "network unreachable, check your connection",
	CodeUnknownError: "an unexpected error occurred",
}

// APIError is the single error type surfaced by the client. It carries
// enough context for callers to branch on transport failure vs. business
// failure vs. authentication failure.
type APIError struct {
	// Status is the HTTP status code, 408 for client-side timeouts, or 0
	// when the backend was never reached.
	Status int
	// Code is a transport-level code constant or the backend's numeric
	// business code.
	Code    string
	Message string
	// Details carries the envelope's data field on business failures.
	Details json.RawMessage
	// Err is the sentinel this error wraps.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("ragline: %s (status=%d, code=%s)", e.Message, e.Status, e.Code)
}

// Unwrap returns the wrapped sentinel for error chaining.
func (e *APIError) Unwrap() error {
	return e.Err
}

// newCatalogError builds an APIError whose message comes from the fixed
// catalog.
func newCatalogError(status int, code string, sentinel error) *APIError {
	return &APIError{Status: status, Code: code, Message: catalog[code], Err: sentinel}
}

// Classify maps any failure to an *APIError. It is consulted once per
// request at the outermost boundary so callers never see raw transport
// errors. An *APIError passes through unchanged (no double-wrapping).
func Classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newCatalogError(408, CodeTimeout, ErrTimeout)
	}
	if isNetworkError(err) {
		return newCatalogError(0, CodeNetworkError, ErrNetwork)
	}
	msg := catalog[CodeUnknownError]
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &APIError{Status: 500, Code: CodeUnknownError, Message: msg, Err: ErrUnknown}
}

// isNetworkError reports whether err is a transport-level connectivity
// failure (dial, DNS, reset). Deadline errors are handled before this
// check; everything http.Client wraps in *url.Error beyond them is a
// network failure from the caller's point of view.
func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
