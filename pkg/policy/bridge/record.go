package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"

	"mercator-hq/ferry/pkg/policy"
)

// HeaderSize is the encoded size of a record header.
const HeaderSize = 32

const (
	offAttributes = 16
	offSize       = 24
	offCapacity   = 26
	offFlags      = 28
)

// Record flags.
const (
	// FlagRemoved marks a record that readers must ignore.
	FlagRemoved uint32 = 1 << 0
)

// ErrMalformedBlock is returned for a block that cannot be parsed.
var ErrMalformedBlock = errors.New("malformed handoff block")

// Record is one decoded forward-handoff record.
type Record struct {
	ID         policy.ID
	Attributes policy.Attributes

	// Capacity is the size of the producing stage's buffer. It is never
	// smaller than the payload.
	Capacity uint16

	Flags   uint32
	Payload []byte
}

// Removed reports whether the record carries the removed tombstone.
func (r Record) Removed() bool {
	return r.Flags&FlagRemoved != 0
}

// EncodedSize is the number of bytes AppendRecord writes for r.
func (r Record) EncodedSize() int {
	return HeaderSize + len(r.Payload)
}

// AppendRecord encodes r and appends it to dst. A capacity smaller than the
// payload is raised to the payload size. The payload must not exceed
// policy.MaxPayloadSize.
func AppendRecord(dst []byte, r Record) []byte {
	if len(r.Payload) > policy.MaxPayloadSize {
		panic(fmt.Sprintf("bridge: payload of %d bytes does not fit a handoff record", len(r.Payload)))
	}
	capacity := max(r.Capacity, uint16(len(r.Payload)))

	var hdr [HeaderSize]byte
	policy.PutGUID(hdr[:offAttributes], r.ID)
	binary.LittleEndian.PutUint64(hdr[offAttributes:], uint64(r.Attributes))
	binary.LittleEndian.PutUint16(hdr[offSize:], uint16(len(r.Payload)))
	binary.LittleEndian.PutUint16(hdr[offCapacity:], capacity)
	binary.LittleEndian.PutUint32(hdr[offFlags:], r.Flags)

	dst = append(dst, hdr[:]...)
	return append(dst, r.Payload...)
}

// DecodeRecord decodes the record at the start of b and returns it with the
// number of bytes consumed. The payload aliases b.
func DecodeRecord(b []byte) (Record, int, error) {
	if len(b) < HeaderSize {
		return Record{}, 0, fmt.Errorf("%w: %d trailing bytes are shorter than a record header", ErrMalformedBlock, len(b))
	}
	size := int(binary.LittleEndian.Uint16(b[offSize:]))
	capacity := binary.LittleEndian.Uint16(b[offCapacity:])
	if int(capacity) < size {
		return Record{}, 0, fmt.Errorf("%w: capacity %d below payload size %d", ErrMalformedBlock, capacity, size)
	}
	end := HeaderSize + size
	if len(b) < end {
		return Record{}, 0, fmt.Errorf("%w: payload of %d bytes truncated to %d", ErrMalformedBlock, size, len(b)-HeaderSize)
	}

	r := Record{
		ID:         policy.GUIDFrom(b[:offAttributes]),
		Attributes: policy.Attributes(binary.LittleEndian.Uint64(b[offAttributes:])),
		Capacity:   capacity,
		Flags:      binary.LittleEndian.Uint32(b[offFlags:]),
		Payload:    b[HeaderSize:end:end],
	}
	if r.ID.IsZero() {
		return Record{}, 0, fmt.Errorf("%w: record with nil id", ErrMalformedBlock)
	}
	return r, end, nil
}

// Scanner iterates the records of one block.
//
//	sc := bridge.NewScanner(block)
//	for sc.Scan() {
//		rec := sc.Record()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	block  []byte
	off    int
	recOff int
	rec    Record
	err    error
}

// NewScanner returns a Scanner over block.
func NewScanner(block []byte) *Scanner {
	return &Scanner{block: block}
}

// Scan advances to the next record. It returns false at the end of the
// block or on the first malformed record.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.off >= len(s.block) {
		return false
	}
	rec, n, err := DecodeRecord(s.block[s.off:])
	if err != nil {
		s.err = fmt.Errorf("record at offset %d: %w", s.off, err)
		return false
	}
	s.rec = rec
	s.recOff = s.off
	s.off += n
	return true
}

// Record returns the current record.
func (s *Scanner) Record() Record {
	return s.rec
}

// Offset returns the position of the current record within the block.
func (s *Scanner) Offset() int {
	return s.recOff
}

// Err returns the first decoding error, if any.
func (s *Scanner) Err() error {
	return s.err
}

// markRemoved sets the removed flag of the record header at b in place.
func markRemoved(b []byte) {
	flags := binary.LittleEndian.Uint32(b[offFlags:])
	binary.LittleEndian.PutUint32(b[offFlags:], flags|FlagRemoved)
}
