package fortune

import (
	"encoding/binary"
	"math"
)

const (
	// SidecarSuffix is appended to a source path to name its index file.
	SidecarSuffix = ".datx"

	// RecordSize is the size in bytes of one index record.
	RecordSize = offsetWidth + lengthWidth

	// MaxEntryLength is the largest entry, in bytes, a record can describe.
	// Longer entries are left out of the index.
	MaxEntryLength = math.MaxInt16

	offsetWidth = 8
	lengthWidth = 2
)

// Record locates one entry inside its source file.
//
// On disk a record is 10 bytes, little-endian:
//
//	[0:8]  signed 64-bit offset of the first byte of the entry
//	[8:10] signed 16-bit length of the entry in bytes
type Record struct {
	Offset int64
	Length int16
}

// End returns the offset just past the last byte of the entry.
func (r Record) End() int64 {
	return r.Offset + int64(r.Length)
}

// Marshal writes the record into dst, which must hold at least RecordSize bytes.
func (r Record) Marshal(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:offsetWidth], uint64(r.Offset))
	binary.LittleEndian.PutUint16(dst[offsetWidth:RecordSize], uint16(r.Length))
}

// Unmarshal reads a record from src, which must hold at least RecordSize bytes.
func (r *Record) Unmarshal(src []byte) {
	r.Offset = int64(binary.LittleEndian.Uint64(src[0:offsetWidth]))
	r.Length = int16(binary.LittleEndian.Uint16(src[offsetWidth:RecordSize]))
}

// encodable reports whether an entry of n bytes gets a record.
// Empty segments are not entries.
func encodable(n int64) bool {
	return n > 0 && n <= MaxEntryLength
}

// SidecarPath returns the index file path for a source file.
func SidecarPath(source string) string {
	return source + SidecarSuffix
}
