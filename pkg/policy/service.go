package policy

import (
	"context"
	"errors"
)

// Callback is invoked synchronously when a watched policy changes. events is
// the full event mask of the mutation; h is the registration being served, so
// a callback can unregister itself.
type Callback func(ctx context.Context, id ID, events EventMask, h Handle)

// Service is the policy interface published to modules in one execution
// context. Each execution context supplies its own implementation.
type Service interface {
	// Set creates or replaces the policy id. It fails with ErrAccessDenied
	// if the existing policy is finalized.
	Set(ctx context.Context, id ID, attrs Attributes, payload []byte) error

	// Get copies the payload of id into buf and returns its size and
	// attributes. If buf is shorter than the payload it fails with
	// ErrBufferTooSmall and n holds the required size.
	Get(ctx context.Context, id ID, buf []byte) (n int, attrs Attributes, err error)

	// Remove deletes the policy id.
	Remove(ctx context.Context, id ID) error

	// RegisterNotify subscribes cb to the events in mask for policy id.
	RegisterNotify(ctx context.Context, id ID, mask EventMask, priority Priority, cb Callback) (Handle, error)

	// UnregisterNotify cancels a registration.
	UnregisterNotify(ctx context.Context, h Handle) error
}

// Lookup returns a copy of the payload of id using the two-call Get protocol.
func Lookup(ctx context.Context, svc Service, id ID) ([]byte, Attributes, error) {
	n, attrs, err := svc.Get(ctx, id, nil)
	for errors.Is(err, ErrBufferTooSmall) {
		buf := make([]byte, n)
		n, attrs, err = svc.Get(ctx, id, buf)
		if err == nil {
			return buf[:n], attrs, nil
		}
	}
	if err != nil {
		return nil, 0, err
	}
	return []byte{}, attrs, nil
}
