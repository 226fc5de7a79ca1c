package services

import (
	"errors"
	"reflect"
)

// ValidationError is a request the handler must reject with 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func requiredField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// UpstreamError wraps any failure of the search domain. Its message is the
// underlying message so callers see what the domain reported.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Kind() string { return ErrorKind(e.Err) }

type kinded interface {
	Kind() string
}

// ErrorKind names the kind of err: the first Kind() found in the chain, or
// else the type name of the innermost error.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	innermost := err
	for {
		next := errors.Unwrap(innermost)
		if next == nil {
			break
		}
		innermost = next
	}

	t := reflect.TypeOf(innermost)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "Error"
	}
	return t.Name()
}
