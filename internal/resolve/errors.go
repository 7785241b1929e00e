// Package resolve implements the coordinate resolution engine: a session
// resolver that drives one WebDriver browsing context, a pool arbitrating a
// fixed set of sessions, and a scheduler dispatching lookups across the pool
// with bounded parallelism and requeue-based retries.
package resolve

import (
	"errors"
	"fmt"
)

// FailureKind categorizes a terminal lookup failure.
type FailureKind string

const (
	// FailTimeout means the map service never surfaced coordinates within
	// the wait window. Retryable.
	FailTimeout FailureKind = "timeout"
	// FailNotFound means the service landed on a page with no
	// coordinate-bearing URL. Deterministic negative, never retried.
	FailNotFound FailureKind = "not_found"
	// FailSession means the remote session is unreachable or answered with a
	// protocol-level error. Retryable, and the session is presumed unusable.
	FailSession FailureKind = "session_error"
)

// LookupError is a categorized lookup failure.
type LookupError struct {
	Kind FailureKind
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func timeoutErr(err error) *LookupError {
	return &LookupError{Kind: FailTimeout, Err: err}
}

func notFoundErr(err error) *LookupError {
	return &LookupError{Kind: FailNotFound, Err: err}
}

func sessionErr(err error) *LookupError {
	return &LookupError{Kind: FailSession, Err: err}
}

// KindOf extracts the failure kind from an error chain. Uncategorized errors
// count as session errors: something between us and the remote end broke in a
// way the resolver did not anticipate.
func KindOf(err error) FailureKind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return FailSession
}

// Retryable reports whether a failed lookup may be requeued. NotFound is a
// deterministic answer from the service; asking again cannot change it.
func Retryable(err error) bool {
	return KindOf(err) != FailNotFound
}
