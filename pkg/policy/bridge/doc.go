// Package bridge carries policies across a boot-stage boundary.
//
// At the end of a stage, Export serializes every policy that is not local to
// the stage into a forward-handoff block and appends it to a Region. At the
// start of the next stage, before any other policy operation, Ingest walks
// the region's blocks oldest first and installs each live record into the new
// stage's store. Ingested payloads alias the region's memory; the store never
// frees them and copies them out on the first Set.
//
// # Wire format
//
// A block is a concatenation of records. Each record is a packed,
// little-endian header followed by the payload:
//
//	offset  size  field
//	0       16    id (GUID layout)
//	16      8     attributes
//	24      2     payload_size
//	26      2     capacity
//	28      4     flags (bit 0: removed)
//	32      n     payload
//
// A reader scans until the block's length is exhausted. Records with the
// removed flag set are skipped; Export sets it on earlier records for any
// policy it writes again.
//
// Regions are persisted between processes with WriteRegionFile and
// ReadRegionFile.
package bridge
