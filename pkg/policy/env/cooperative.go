package env

import (
	"sync/atomic"

	"mercator-hq/ferry/pkg/policy"
)

// Cooperative is the lock-free variant for contexts where only one logical
// caller is ever active. Entering while another caller is inside is a
// programming error and panics.
type Cooperative struct {
	inside atomic.Bool
}

// NewCooperative creates the cooperative variant.
func NewCooperative() *Cooperative {
	return &Cooperative{}
}

// Name implements Environment.
func (c *Cooperative) Name() string {
	return string(KindCooperative)
}

// Lock implements Environment.
func (c *Cooperative) Lock() {
	if !c.inside.CompareAndSwap(false, true) {
		panic("env: concurrent entry into cooperative environment")
	}
}

// Unlock implements Environment.
func (c *Cooperative) Unlock() {
	if !c.inside.CompareAndSwap(true, false) {
		panic("env: unlock of cooperative environment that was not entered")
	}
}

// PublishMarker implements Environment. Cooperative contexts have no
// publication mechanism.
func (c *Cooperative) PublishMarker(policy.ID) error {
	return nil
}

// WithdrawMarker implements Environment.
func (c *Cooperative) WithdrawMarker(policy.ID) error {
	return nil
}
