package client

import (
	"fmt"
)

// APIError is an explicit rejection from the Torn API, delivered in the
// error envelope {"error":{"code":...,"error":"..."}} with HTTP 200. The
// numeric code and message are preserved verbatim so callers can branch
// on them (e.g. code 2 "Incorrect key" vs code 6 "Incorrect ID").
type APIError struct {
	Code    uint16
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("torn API error %d: %s", e.Code, e.Message)
}

// StatusError is a non-2xx HTTP response that did not carry the API
// error envelope.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from API", e.StatusCode)
}

// TransportError wraps a failure from the underlying HTTP layer
// (connection refused, timeout, DNS). Transport failures are never
// retried by the client.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a response body that did not match the expected
// target shape.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errorClass buckets an error for the torn_errors_total metric.
func errorClass(err error) string {
	switch err.(type) {
	case *APIError:
		return "api"
	case *StatusError:
		return "http_status"
	case *TransportError:
		return "transport"
	case *DecodeError:
		return "decode"
	default:
		return "other"
	}
}
