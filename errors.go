package zorm

import (
	"errors"
	"fmt"
)

// Error types for ORM operations.
var (
	// ErrPoolUnavailable is returned when no usable connection pool could be
	// acquired for an operation.
	ErrPoolUnavailable = errors.New("connection pool unavailable")

	// ErrAcquireTimeout is returned when a connection could not be acquired
	// within the configured acquire timeout. It is retryable by the caller.
	ErrAcquireTimeout = errors.New("connection acquire timeout")

	// ErrNotFound is returned when a document selected by a primary key or a
	// unique query does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDecode is returned when a result row could not be decoded into a
	// document.
	ErrDecode = errors.New("row decode failed")

	// ErrMalformedFilter is returned in strict mode when a filter value does
	// not compile into a condition. In lenient mode (the default) malformed
	// filters degrade to best-effort predicates instead.
	ErrMalformedFilter = errors.New("malformed filter")

	// ErrInvalidConfig is returned when the static configuration is missing
	// required keys. This is fatal at startup.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DecodeError reports a row decode failure with the offending column context.
type DecodeError struct {
	Column   string
	TypeName string
	Cause    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode column %q (%s): %v", e.Column, e.TypeName, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode || errors.Is(e.Cause, target)
}

// QueryError reports a failed database operation with its context.
type QueryError struct {
	Operation string
	Table     string
	Cause     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s on %s: %v", e.Operation, e.Table, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPoolUnavailable checks if an error is a pool availability error.
func IsPoolUnavailable(err error) bool {
	return errors.Is(err, ErrPoolUnavailable)
}
