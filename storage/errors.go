// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package storage

import "fmt"

// ErrCode represents the collection of errors that may be returned by
// the staging store.
type ErrCode int

const (
	// InternalErr indicates an unknown, internal error has occurred.
	InternalErr ErrCode = iota

	// NotFoundErr indicates the requested object, version, package, or
	// child does not exist. This is not a fault: resolvers return it
	// routinely and it flows back to the VM as an absent lookup.
	NotFoundErr

	// InvariantViolationErr indicates a fatal, non-recoverable
	// inconsistency: a version mismatch on a known-version lookup, a
	// missing pre-image for a modified object, a conservation
	// failure, an ownership chain rooted outside the authenticated
	// set, or mutation of an immutable object outside a permitted
	// system-package upgrade. The caller must abort the transaction
	// commit on this error.
	InvariantViolationErr

	// BadObjectTypeErr indicates the caller asked a resolver for a
	// Move value where a package was stored, or vice versa.
	BadObjectTypeErr

	// ExecutionErr indicates a caller-surfaced, typed execution
	// failure that the engine may convert
	// into a failed-but-not-committed transaction outcome, as opposed
	// to a fatal invariant violation.
	ExecutionErr
)

func (c ErrCode) String() string {
	switch c {
	case InternalErr:
		return "internal"
	case NotFoundErr:
		return "not_found"
	case InvariantViolationErr:
		return "invariant_violation"
	case BadObjectTypeErr:
		return "bad_object_type"
	case ExecutionErr:
		return "execution"
	default:
		return fmt.Sprintf("ErrCode(%d)", int(c))
	}
}

// Error is the error type returned by the staging store.
type Error struct {
	Code    ErrCode
	Message string
}

func (err *Error) Error() string {
	return fmt.Sprintf("storage error (code: %s): %v", err.Code, err.Message)
}

// IsNotFound returns true if err is a NotFoundErr.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == NotFoundErr
}

// IsInvariantViolation returns true if err is an InvariantViolationErr.
func IsInvariantViolation(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == InvariantViolationErr
}

// IsExecutionError returns true if err is an ExecutionErr.
func IsExecutionError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ExecutionErr
}

func internalError(f string, a ...interface{}) *Error {
	return &Error{Code: InternalErr, Message: fmt.Sprintf(f, a...)}
}

func notFoundErrorf(f string, a ...interface{}) *Error {
	return &Error{Code: NotFoundErr, Message: fmt.Sprintf(f, a...)}
}

func invariantViolation(f string, a ...interface{}) *Error {
	return &Error{Code: InvariantViolationErr, Message: fmt.Sprintf(f, a...)}
}

func badObjectType(f string, a ...interface{}) *Error {
	return &Error{Code: BadObjectTypeErr, Message: fmt.Sprintf(f, a...)}
}

func executionError(f string, a ...interface{}) *Error {
	return &Error{Code: ExecutionErr, Message: fmt.Sprintf(f, a...)}
}

// invariantPanic raises a fatal invariant violation as a panic, for
// states that must never occur during normal operation. Callers that
// want to convert this into a recoverable path (e.g. turning it into a
// system-level epoch halt) can recover() at the boundary.
func invariantPanic(f string, a ...interface{}) {
	panic(invariantViolation(f, a...))
}
