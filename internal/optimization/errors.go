package optimization

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Sentinel errors for constructor validation failures. Both are fatal:
// construction must not proceed with a misconfigured optimizer.
var (
	// ErrInvalidCoefficient reports a reflection, contraction or expansion
	// coefficient that is not strictly positive.
	ErrInvalidCoefficient = &Error{Message: "coefficient must be strictly positive"}

	// ErrInvalidInitialSimplex reports a caller-supplied simplex whose points
	// produce a non-finite objective value, or whose shape does not match the
	// configured dimensionality.
	ErrInvalidInitialSimplex = &Error{Message: "invalid initial simplex"}

	// ErrDimensionMismatch reports a dimensionality an objective cannot be
	// sized for.
	ErrDimensionMismatch = &Error{Message: "dimension mismatch"}
)

// Error is the error type shared by the optimization packages. Component and
// Op locate the failure; Err keeps the cause (and any sentinel) reachable
// through errors.Is.
type Error struct {
	// Message describes what went wrong.
	Message string
	// Op is the operation in flight when the error occurred.
	Op string
	// Component names the originating package or subsystem.
	Component string
	// Err is the wrapped cause, if any.
	Err error
}

// Error renders "component: op: message: cause", omitting empty parts.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	if e.Component != "" {
		parts = append(parts, e.Component)
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation records the operation in flight.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent records the originating component.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates an error with the given message.
func NewError(message string) *Error {
	return &Error{Message: message}
}

// NewErrorf creates an error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapError annotates err with a message. Wrapping keeps the sentinel
// reachable through errors.Is. A nil err yields nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err}
}

// WrapErrorf annotates err with a formatted message. A nil err yields nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsOptimizationError reports whether err is, or wraps, an *Error, and
// returns it.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}
