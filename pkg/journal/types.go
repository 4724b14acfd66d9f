package journal

import (
	"time"

	"github.com/google/uuid"

	"mercator-hq/ferry/pkg/policy"
)

// Record is one journaled operation.
type Record struct {
	Session    uuid.UUID
	Seq        int64
	Op         string
	PolicyID   policy.ID
	Handle     policy.Handle
	Attributes policy.Attributes
	Size       int
	Events     policy.EventMask

	// Error is the operation's error text, empty on success.
	Error string

	Duration   time.Duration
	RecordedAt time.Time
}

// Failed reports whether the operation returned an error.
func (r Record) Failed() bool {
	return r.Error != ""
}

// Filter selects records for Query. Zero fields match everything.
type Filter struct {
	Session  uuid.UUID
	PolicyID policy.ID
	Op       string
	Since    time.Time

	// FailedOnly keeps only operations that returned an error.
	FailedOnly bool

	// Limit caps the number of records returned (default 1000).
	Limit int
}

// DefaultQueryLimit is the Filter.Limit used when none is given.
const DefaultQueryLimit = 1000
