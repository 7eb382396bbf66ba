package wire

import (
	"errors"
	"fmt"
)

// Error wraps an ErrorKind with the operation that produced it and an
// optional underlying cause. It is returned as a pointer from fallible
// operations rather than panicking; compare kinds with errors.Is against
// an *Error carrying the wanted Kind, or use KindOf.
type Error struct {
	Op    string
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &wire.Error{Kind: wire.Timeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError constructs an *Error for op/kind, optionally wrapping cause.
func NewError(op string, kind ErrorKind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Cause: cause}
}

// KindOf extracts the ErrorKind from err, or NoError if err is nil or not
// a *Error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return NoError
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return NoError
}
