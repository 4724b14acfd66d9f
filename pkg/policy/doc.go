// Package policy defines the vocabulary shared by every part of the policy
// store: identifiers, attribute flags, notification event masks, the error
// taxonomy, and the Service interface that each execution context implements.
//
// # Policies
//
// A policy is a small, named, opaque configuration blob. It is identified by
// a 128-bit ID, carries a set of attribute flags, and holds at most
// MaxPayloadSize bytes of payload. Two attributes have meaning to the store:
//
//   - AttrFinalized: the policy is permanently read-only. Any later Set for
//     the same ID fails with ErrAccessDenied.
//   - AttrLocalToStage: the policy never crosses a boot stage boundary.
//
// # Reading a policy
//
// Get follows a two-call protocol. The first call is made with a buffer that
// may be too small (or nil); it fails with ErrBufferTooSmall and reports the
// required size. The second call uses a buffer of that size:
//
//	n, _, err := svc.Get(ctx, id, nil)
//	if errors.Is(err, policy.ErrBufferTooSmall) {
//	    buf := make([]byte, n)
//	    n, attrs, err = svc.Get(ctx, id, buf)
//	}
//
// Lookup wraps that sequence for callers that simply want a copy.
//
// # Notifications
//
// RegisterNotify attaches a Callback to one policy ID for a mask of events
// (EventSet, EventRemoved, EventFinalized). Callbacks run synchronously in
// priority order and may call back into the Service.
package policy
