package policy

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// MaxPayloadSize is the largest payload a policy can hold. The stage handoff
// record stores the size in two bytes.
const MaxPayloadSize = 0xFFFF

// GUIDSize is the encoded size of an ID.
const GUIDSize = 16

// ID is the 128-bit identifier of a policy.
type ID uuid.UUID

// NilID is the zero ID. It never names a policy.
var NilID ID

// ParseID parses the textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("invalid policy id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParseID is like ParseID but panics on malformed input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NewID returns a random ID.
func NewID() ID {
	return ID(uuid.New())
}

// String returns the canonical textual form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is NilID.
func (id ID) IsZero() bool {
	return id == NilID
}

// PutGUID writes id into dst using the firmware GUID layout: the first three
// groups little-endian, the trailing eight bytes as-is. dst must hold at
// least GUIDSize bytes.
func PutGUID(dst []byte, id ID) {
	_ = dst[GUIDSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], binary.BigEndian.Uint32(id[0:4]))
	binary.LittleEndian.PutUint16(dst[4:6], binary.BigEndian.Uint16(id[4:6]))
	binary.LittleEndian.PutUint16(dst[6:8], binary.BigEndian.Uint16(id[6:8]))
	copy(dst[8:16], id[8:16])
}

// GUIDFrom decodes an ID written by PutGUID.
func GUIDFrom(src []byte) ID {
	_ = src[GUIDSize-1]
	var id ID
	binary.BigEndian.PutUint32(id[0:4], binary.LittleEndian.Uint32(src[0:4]))
	binary.BigEndian.PutUint16(id[4:6], binary.LittleEndian.Uint16(src[4:6]))
	binary.BigEndian.PutUint16(id[6:8], binary.LittleEndian.Uint16(src[6:8]))
	copy(id[8:16], src[8:16])
	return id
}

// Attributes are the flags stored alongside a policy payload.
type Attributes uint64

const (
	// AttrFinalized makes a policy permanently read-only.
	AttrFinalized Attributes = 1 << 0

	// AttrLocalToStage keeps a policy from crossing the stage boundary.
	AttrLocalToStage Attributes = 1 << 1
)

var attributeNames = map[string]Attributes{
	"finalized": AttrFinalized,
	"local":     AttrLocalToStage,
}

// Has reports whether all bits of flag are set.
func (a Attributes) Has(flag Attributes) bool {
	return a&flag == flag
}

// String renders known flags by name and any remaining bits in hex.
func (a Attributes) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a.Has(AttrFinalized) {
		parts = append(parts, "finalized")
	}
	if a.Has(AttrLocalToStage) {
		parts = append(parts, "local")
	}
	if rest := a &^ (AttrFinalized | AttrLocalToStage); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseAttributes parses flag names such as "finalized" and "local".
func ParseAttributes(names []string) (Attributes, error) {
	var a Attributes
	for _, name := range names {
		flag, ok := attributeNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			known := make([]string, 0, len(attributeNames))
			for k := range attributeNames {
				known = append(known, k)
			}
			sort.Strings(known)
			return 0, fmt.Errorf("unknown attribute %q (known: %s)", name, strings.Join(known, ", "))
		}
		a |= flag
	}
	return a, nil
}

// EventMask selects which mutations a notification callback receives.
type EventMask uint32

const (
	// EventSet is delivered after a policy is created or updated.
	EventSet EventMask = 1 << 0

	// EventRemoved is delivered after a policy is removed.
	EventRemoved EventMask = 1 << 1

	// EventFinalized accompanies EventSet when the new attributes finalize the policy.
	EventFinalized EventMask = 1 << 2

	// EventAll is every event kind.
	EventAll = EventSet | EventRemoved | EventFinalized
)

// Valid reports whether m is non-empty and names only known events.
func (m EventMask) Valid() bool {
	return m != 0 && m&^EventAll == 0
}

func (m EventMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&EventSet != 0 {
		parts = append(parts, "set")
	}
	if m&EventRemoved != 0 {
		parts = append(parts, "removed")
	}
	if m&EventFinalized != 0 {
		parts = append(parts, "finalized")
	}
	if rest := m &^ EventAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Priority orders notification callbacks. Lower values run first.
type Priority uint32

// DefaultPriority is the priority used when a caller has no preference.
const DefaultPriority Priority = 512

// Handle identifies a notification registration. The zero Handle is never
// issued.
type Handle uint64
