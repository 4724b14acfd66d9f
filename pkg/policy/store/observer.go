package store

import (
	"context"
	"time"

	"mercator-hq/ferry/pkg/policy"
)

// OpKind names a Service operation.
type OpKind string

const (
	// OpSet creates or overwrites a policy.
	OpSet OpKind = "set"
	// OpGet reads a policy.
	OpGet OpKind = "get"
	// OpRemove deletes a policy.
	OpRemove OpKind = "remove"
	// OpRegister attaches a notification callback.
	OpRegister OpKind = "register"
	// OpUnregister detaches a notification callback.
	OpUnregister OpKind = "unregister"
	// OpIngest installs a policy from a handoff region.
	OpIngest OpKind = "ingest"
)

// Operation describes one completed Service call.
type Operation struct {
	// Kind is the operation performed.
	Kind OpKind

	// ID is the policy operated on. Zero for OpUnregister.
	ID policy.ID

	// Handle is the registration created or removed, for OpRegister and
	// OpUnregister.
	Handle policy.Handle

	// Attributes are the policy's attributes as set, read or removed.
	Attributes policy.Attributes

	// Size is the payload size in bytes.
	Size int

	// Events are the events dispatched, or the mask registered.
	Events policy.EventMask

	// Err is the operation's error, nil on success.
	Err error

	// Duration is the wall time of the call, zero for operations that are
	// not timed.
	Duration time.Duration
}

// Observer is told about every completed operation, after the environment
// lock has been released. Observers must not block for long; they run on
// the caller's stack, including inside notification callbacks.
type Observer interface {
	Observe(ctx context.Context, op Operation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, op Operation)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, op Operation) {
	f(ctx, op)
}
