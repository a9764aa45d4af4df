package restapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/dctdash/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout or deadline
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the base URL
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-200 status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeCanceled indicates the caller canceled the request context
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError represents an error that occurred while talking to the REST API
type APIError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	Endpoint   string    // Request path, e.g. "/rest/capturedevice"
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Endpoint != "" {
		msg += " [" + e.Endpoint + "]"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyTransportError maps an http.Client error to an ErrorType
func classifyTransportError(err error) ErrorType {
	if errors.Is(err, context.Canceled) {
		return ErrTypeCanceled
	}
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrTypeDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return ErrTypeConnectionRefused
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return classifyTransportError(urlErr.Err)
	}

	return ErrTypeNetwork
}

// NewNetworkError creates a transport-level error with automatic classification
func NewNetworkError(endpoint, message string, err error) *APIError {
	return &APIError{
		Type:     classifyTransportError(err),
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(endpoint string, statusCode int) *APIError {
	return &APIError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(endpoint, message string, err error) *APIError {
	return &APIError{
		Type:     ErrTypeParse,
		Message:  message,
		Endpoint: endpoint,
		Err:      err,
	}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a transport error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		switch apiErr.Type {
		case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
			return true
		}
	}
	return false
}

// IsHTTPError checks if an error is an HTTP status error
func IsHTTPError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeParse
}

// IsNotFound reports whether the server answered 404, which OpenDCT does for
// unknown device names.
func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeHTTP && apiErr.StatusCode == 404
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "OpenDCT not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Connection refused - is the OpenDCT web interface enabled?"
	case ErrTypeDNS:
		return "Cannot resolve server hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		if apiErr.StatusCode == 404 {
			return "Not found (HTTP 404) - check the base URL path"
		}
		return fmt.Sprintf("Server error (HTTP %d)", apiErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse server response"
	case ErrTypeCanceled:
		return "Request canceled"
	default:
		return apiErr.Message
	}
}

// Hint returns troubleshooting advice for an error. `servers add` prints it
// when a newly registered server does not answer.
func Hint(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeConnectionRefused, ErrTypeTimeout, ErrTypeNetwork:
		return strings.Join([]string{
			"The OpenDCT web interface could not be reached.",
			"Troubleshooting:",
			"  • Check that OpenDCT is running",
			"  • Verify the web interface is enabled (see " + urls.WebInterface + ")",
			"  • Check the host and port in --server",
			"  • Try 'dctdash scan' to discover servers on the network",
		}, "\n")
	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the server hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of the hostname",
			"  • Check your network DNS settings",
		}, "\n")
	case ErrTypeHTTP:
		if apiErr.StatusCode == 404 {
			return strings.Join([]string{
				"The server answered but the REST API was not found.",
				"Troubleshooting:",
				"  • The base URL must point at the web application, e.g. http://host:9091/opendct",
			}, "\n")
		}
		return fmt.Sprintf("The server returned HTTP %d. Check the OpenDCT log.", apiErr.StatusCode)
	case ErrTypeParse:
		return "The server response was not the expected JSON. Check the OpenDCT version (" + urls.Project + ")."
	default:
		return "An error occurred. Please check the error message for details."
	}
}
