package bridge

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/google/renameio/v2"
)

var regionMagic = [4]byte{'F', 'R', 'R', 'G'}

// RegionFileVersion is the current region file format version.
const RegionFileVersion = 1

const regionFileHeader = 8

// MarshalBinary encodes the region as a region file: the magic "FRRG", a
// little-endian u16 version, a u16 block count, then each block as a u32
// length followed by its bytes.
func (r *Region) MarshalBinary() ([]byte, error) {
	if len(r.blocks) > math.MaxUint16 {
		return nil, fmt.Errorf("region has %d blocks, at most %d fit a region file", len(r.blocks), math.MaxUint16)
	}
	out := make([]byte, regionFileHeader, regionFileHeader+r.Len()+4*len(r.blocks))
	copy(out, regionMagic[:])
	binary.LittleEndian.PutUint16(out[4:], RegionFileVersion)
	binary.LittleEndian.PutUint16(out[6:], uint16(len(r.blocks)))
	for _, b := range r.blocks {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(b)))
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalBinary replaces r's blocks with those encoded in data. Blocks
// alias data. Block contents are not validated until they are scanned.
func (r *Region) UnmarshalBinary(data []byte) error {
	if len(data) < regionFileHeader || [4]byte(data[:4]) != regionMagic {
		return fmt.Errorf("%w: missing region file header", ErrMalformedBlock)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != RegionFileVersion {
		return fmt.Errorf("unsupported region file version %d", v)
	}
	count := int(binary.LittleEndian.Uint16(data[6:]))

	blocks := make([][]byte, 0, count)
	rest := data[regionFileHeader:]
	for i := range count {
		if len(rest) < 4 {
			return fmt.Errorf("%w: block %d: missing length", ErrMalformedBlock, i)
		}
		n := int(binary.LittleEndian.Uint32(rest))
		rest = rest[4:]
		if len(rest) < n {
			return fmt.Errorf("%w: block %d: declares %d bytes, %d remain", ErrMalformedBlock, i, n, len(rest))
		}
		blocks = append(blocks, rest[:n:n])
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d bytes after the last block", ErrMalformedBlock, len(rest))
	}
	r.blocks = blocks
	return nil
}

// WriteRegionFile atomically replaces path with the encoded region.
func WriteRegionFile(path string, r *Region) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing region file: %w", err)
	}
	return nil
}

// ReadRegionFile loads a region written by WriteRegionFile. A missing file
// yields an empty region, as for a first stage with no predecessor.
func ReadRegionFile(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegion(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading region file: %w", err)
	}
	r := &Region{}
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
