// Package index implements the on-disk skip-pointer index format: record
// layout, the height function, the writer's commit-time back-pointer
// bookkeeping, and the reader's skip-list descent (exact/floor/ceil/range).
package index

import (
	"fmt"

	"github.com/skiptag/store/internal/codec"
)

// BackPointerSize is the encoded width of one back pointer: an int64 tag
// followed by an int64 offset.
const BackPointerSize = 2 * codec.Int64Size

// HeaderSuffixSize is the width of the fixed trailing portion of every
// record: a 4-byte seq followed by an 8-byte tag.
const HeaderSuffixSize = codec.Int32Size + codec.Int64Size

// fixedFieldsSize is the width of payloadOffset (8) plus the header
// suffix (12) that follows a record's back pointers.
const fixedFieldsSize = codec.Int64Size + HeaderSuffixSize

// BackPointer is one skip-list link: the tag of the target record and the
// index-file offset of that record's header suffix.
type BackPointer struct {
	Tag    int64
	Offset int64
}

// Record is one decoded index record: everything a commit writes for a
// single blob.
type Record struct {
	BackPointers  []BackPointer
	PayloadOffset int64
	Seq           uint32
	Tag           int64
}

// Size returns the total encoded length of r in bytes: height(seq) back
// pointers plus the fixed fields.
func (r Record) Size() int {
	return RecordSize(len(r.BackPointers))
}

// RecordSize returns the encoded length, in bytes, of a record with the
// given height.
func RecordSize(height int) int {
	return height*BackPointerSize + fixedFieldsSize
}

// Encode appends the on-disk encoding of r to buf and returns the result.
func (r Record) Encode(buf []byte) []byte {
	out := buf
	for _, bp := range r.BackPointers {
		var tmp [BackPointerSize]byte
		codec.PutInt64(tmp[0:8], bp.Tag)
		codec.PutInt64(tmp[8:16], bp.Offset)
		out = append(out, tmp[:]...)
	}

	var fixed [fixedFieldsSize]byte
	codec.PutInt64(fixed[0:8], r.PayloadOffset)
	codec.PutInt32(fixed[8:12], int32(r.Seq))
	codec.PutInt64(fixed[12:20], r.Tag)
	out = append(out, fixed[:]...)

	return out
}

// DecodeRecord decodes a full record of the given height from buf, which
// must be exactly height*BackPointerSize + fixedFieldsSize bytes long.
func DecodeRecord(buf []byte, height int) (Record, error) {
	want := height*BackPointerSize + fixedFieldsSize
	if len(buf) != want {
		return Record{}, fmt.Errorf("index: record buffer is %d bytes, want %d for height %d", len(buf), want, height)
	}

	r := Record{}
	if height > 0 {
		r.BackPointers = make([]BackPointer, height)
		for i := 0; i < height; i++ {
			base := i * BackPointerSize
			r.BackPointers[i] = BackPointer{
				Tag:    codec.Int64(buf[base : base+8]),
				Offset: codec.Int64(buf[base+8 : base+16]),
			}
		}
	}

	fixed := buf[height*BackPointerSize:]
	r.PayloadOffset = codec.Int64(fixed[0:8])
	r.Seq = uint32(codec.Int32(fixed[8:12]))
	r.Tag = codec.Int64(fixed[12:20])

	return r, nil
}

// HeaderSuffix is the 12-byte seq+tag trailer decoded on its own, without
// the rest of the record — what the reader can cheaply read from any
// back-pointer offset before deciding whether to read further.
type HeaderSuffix struct {
	Seq uint32
	Tag int64
}

// DecodeHeaderSuffix decodes a 12-byte header suffix.
func DecodeHeaderSuffix(buf []byte) (HeaderSuffix, error) {
	if len(buf) != HeaderSuffixSize {
		return HeaderSuffix{}, fmt.Errorf("index: header suffix buffer is %d bytes, want %d", len(buf), HeaderSuffixSize)
	}
	return HeaderSuffix{
		Seq: uint32(codec.Int32(buf[0:4])),
		Tag: codec.Int64(buf[4:12]),
	}, nil
}
