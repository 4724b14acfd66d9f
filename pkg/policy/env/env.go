// Package env provides the execution-context adapters a policy store runs
// under. An Environment supplies the locking discipline around the store and
// the capability-marker publication used to advertise finalized policies.
//
// Two variants exist. CriticalSection serializes every caller through a
// non-reentrant lock and publishes markers on a MarkerBoard; it is meant for
// contexts where more than one caller can be active. Cooperative takes no
// lock and publishes nothing; it is meant for strictly single-threaded
// contexts and panics if that guarantee is broken.
package env

import (
	"fmt"
	"strings"

	"mercator-hq/ferry/pkg/policy"
)

// Environment is the per-context locking and publication discipline.
type Environment interface {
	// Name identifies the variant in logs and metrics.
	Name() string

	// Lock enters the critical section guarding the store and dispatcher.
	Lock()

	// Unlock leaves the critical section.
	Unlock()

	// PublishMarker installs, or reinstalls, the capability marker for id.
	PublishMarker(id policy.ID) error

	// WithdrawMarker removes the capability marker for id if present.
	WithdrawMarker(id policy.ID) error
}

// Kind names an Environment variant in configuration.
type Kind string

const (
	// KindCriticalSection selects the locking, publishing variant.
	KindCriticalSection Kind = "critical_section"

	// KindCooperative selects the lock-free single-caller variant.
	KindCooperative Kind = "cooperative"
)

// ParseKind validates a configured variant name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCriticalSection, "":
		return KindCriticalSection, nil
	case KindCooperative:
		return KindCooperative, nil
	default:
		return "", fmt.Errorf("unknown environment %q (want %q or %q)", s, KindCriticalSection, KindCooperative)
	}
}

// New builds the Environment for kind. board is only used by the
// critical-section variant and may be nil, in which case a fresh board is
// created.
func New(kind Kind, board *MarkerBoard) (Environment, error) {
	switch kind {
	case KindCriticalSection:
		return NewCriticalSection(board), nil
	case KindCooperative:
		return NewCooperative(), nil
	default:
		return nil, fmt.Errorf("unknown environment %q", kind)
	}
}
