package policy

import (
	"errors"
	"fmt"
)

// Errors returned by a Service. They are usually wrapped in an *OpError, so
// compare with errors.Is.
var (
	// ErrNotFound means no policy or registration exists for the given key.
	ErrNotFound = errors.New("not found")

	// ErrBufferTooSmall means the caller's buffer cannot hold the payload.
	// The concrete error is a *BufferTooSmallError carrying the required size.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrAccessDenied means a write was attempted on a finalized policy.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidParameter means an input was zero, empty, or malformed.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOutOfResources means a payload buffer could not be allocated.
	ErrOutOfResources = errors.New("out of resources")
)

// BufferTooSmallError reports the buffer size a Get needs.
type BufferTooSmallError struct {
	// Required is the payload size in bytes.
	Required int
}

// Error implements the error interface.
func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small: %d bytes required", e.Required)
}

// Is makes errors.Is(err, ErrBufferTooSmall) succeed.
func (e *BufferTooSmallError) Is(target error) bool {
	return target == ErrBufferTooSmall
}

// OpError records the operation and policy an error belongs to.
type OpError struct {
	// Op is the failing operation ("set", "get", "remove", "register", "unregister").
	Op string

	// ID is the policy involved, if any.
	ID ID

	// Handle is the registration involved, if any.
	Handle Handle

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	switch {
	case !e.ID.IsZero():
		return fmt.Sprintf("policy %s: %s: %v", e.Op, e.ID, e.Err)
	case e.Handle != 0:
		return fmt.Sprintf("policy %s: handle %d: %v", e.Op, e.Handle, e.Err)
	default:
		return fmt.Sprintf("policy %s: %v", e.Op, e.Err)
	}
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *OpError) Unwrap() error {
	return e.Err
}

// RequiredSize extracts the size carried by a BufferTooSmall error.
func RequiredSize(err error) (int, bool) {
	var bts *BufferTooSmallError
	if errors.As(err, &bts) {
		return bts.Required, true
	}
	return 0, false
}
