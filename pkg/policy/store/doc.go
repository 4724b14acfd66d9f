// Package store implements the policy Service for one execution context: an
// entry table holding policy payloads and a notification dispatcher that
// delivers mutation events to registered callbacks.
//
// # Core Components
//
// The entry table maps policy IDs to entries. Updates reuse an entry's buffer
// in place whenever the new payload fits its capacity, and capacity is never
// shrunk. Entries ingested from an earlier boot stage hold a borrowed buffer
// that aliases the handoff region; the allocator never sees it.
//
// The dispatcher keeps registrations ordered by (priority, registration
// sequence) and walks them with a key cursor, so callbacks that register or
// unregister during a walk cannot cause a skipped or duplicated delivery.
// Registrations removed while a dispatch is in flight are tombstoned and swept
// when the outermost dispatch finishes.
//
// Service ties both together under an env.Environment lock. The lock is
// released around every callback so callbacks may call back into the Service.
//
// # Reentrancy
//
// A callback may Set, Get or Remove any policy, including the one being
// dispatched. Two rules keep that safe:
//
//   - An entry removed while a dispatch for it is on the stack is unlinked at
//     once but only freed when its notify depth returns to zero.
//   - When a nested dispatch for the same entry runs inside a callback, the
//     outer walk stops after that callback: the nested walk already delivered
//     the newer state.
//
// # Usage
//
//	svc := store.New(env.NewCriticalSection(nil),
//	    store.WithLogger(logger),
//	    store.WithObserver(collector),
//	)
//
//	if err := svc.Set(ctx, id, policy.AttrFinalized, payload); err != nil {
//	    return err
//	}
package store
