// Package codec packs and unpacks the fixed-width big-endian integers used
// throughout the index and content file formats. It is a deliberately thin
// black box: two widths, one endianness, no framing.
package codec

// Int32Size and Int64Size are the encoded widths, in bytes, of the two
// integer forms this package knows about.
const (
	Int32Size = 4
	Int64Size = 8
)

// PutInt32 writes v as a big-endian two's-complement 32-bit integer into
// buf[0:4]. It panics if buf is shorter than Int32Size, the same contract
// binary.BigEndian.PutUint32 has for its buffer argument.
func PutInt32(buf []byte, v int32) {
	u := uint32(v)
	buf[0] = byte(u >> 24)
	buf[1] = byte(u >> 16)
	buf[2] = byte(u >> 8)
	buf[3] = byte(u)
}

// Int32 reads a big-endian two's-complement 32-bit integer from buf[0:4].
func Int32(buf []byte) int32 {
	u := uint32(buf[3]) | uint32(buf[2])<<8 | uint32(buf[1])<<16 | uint32(buf[0])<<24
	return int32(u)
}

// PutInt64 writes v as two big-endian 32-bit halves, high half first, into
// buf[0:8].
func PutInt64(buf []byte, v int64) {
	u := uint64(v)
	PutInt32(buf[0:4], int32(u>>32))
	PutInt32(buf[4:8], int32(u))
}

// Int64 reads a 64-bit integer stored as two big-endian 32-bit halves, high
// half first, from buf[0:8].
func Int64(buf []byte) int64 {
	hi := uint32(Int32(buf[0:4]))
	lo := uint32(Int32(buf[4:8]))
	return int64(uint64(hi)<<32 | uint64(lo))
}
