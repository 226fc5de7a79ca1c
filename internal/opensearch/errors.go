package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ResponseError is a non-2xx reply from the search domain.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	Body       string
}

func newResponseError(statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode, Body: string(body)}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		respErr.Type = parsed.Error.Type
		respErr.Reason = parsed.Error.Reason
	}
	return respErr
}

func (e *ResponseError) Error() string {
	switch {
	case e.Type != "" && e.Reason != "":
		return fmt.Sprintf("opensearch returned %d %s: %s", e.StatusCode, e.Type, e.Reason)
	case e.Body != "":
		return fmt.Sprintf("opensearch returned %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("opensearch returned %d", e.StatusCode)
	}
}

// Kind follows the exception names of the official OpenSearch clients so
// callers see familiar values.
func (e *ResponseError) Kind() string {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return "RequestError"
	case http.StatusUnauthorized:
		return "AuthenticationException"
	case http.StatusForbidden:
		return "AuthorizationException"
	case http.StatusNotFound:
		return "NotFoundError"
	case http.StatusConflict:
		return "ConflictError"
	default:
		return "TransportError"
	}
}

// clientFault is true for rejections caused by the request itself. These
// do not count against the breaker.
func (e *ResponseError) clientFault() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// TransportError means the request never produced a response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Kind() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "ConnectionTimeout"
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return "ConnectionTimeout"
	}
	return "ConnectionError"
}

// DecodeError is a 2xx reply whose body could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Kind() string { return "SerializationError" }

// ConfigError means the client could not be built.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("failed to build opensearch client: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Kind() string { return "ImproperlyConfigured" }

// CircuitOpenError is returned without calling the domain while the breaker is open.
type CircuitOpenError struct {
	Name string
	Err  error
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("breaker (%s): %v", e.Name, e.Err)
}

func (e *CircuitOpenError) Unwrap() error { return e.Err }

func (e *CircuitOpenError) Kind() string { return "CircuitOpenError" }
