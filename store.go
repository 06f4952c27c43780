// Package store implements an append-only, tag-indexed blob store. A
// single Writer appends blobs in non-decreasing tag order to a pair of
// files; any number of Readers search those files concurrently by exact
// tag, floor, ceiling, or range, with sub-linear random access via a
// skip-pointer index embedded in the index file.
//
// A store is named by a base path P: payload bytes live in P, the index
// lives in P+".index". There is no in-memory catalogue — every lookup
// descends the on-disk index fresh, so a Reader opened against a store
// that a Writer keeps appending to always sees whatever was committed
// before the Reader's own call started.
package store

import (
	"bytes"
	"errors"
	"fmt"
)

// indexSuffix is appended to a store's base path to name its index file.
const indexSuffix = ".index"

// ErrTagOrderViolation is returned by Writer.WriteNext when the given tag
// is smaller than the last tag committed in the current writer session.
var ErrTagOrderViolation = errors.New("store: tag order violation")

// ErrCorruptIndex is returned when a read off the index file implies an
// offset or length outside the file, or a negative size.
var ErrCorruptIndex = errors.New("store: corrupt index")

// Blob is an immutable tagged byte sequence, the unit of storage. Two
// Blobs are equal when their tags and payload bytes are both equal.
type Blob struct {
	Tag     int64
	Payload []byte
}

// Equal reports whether b and other carry the same tag and payload
// bytes.
func (b Blob) Equal(other Blob) bool {
	return b.Tag == other.Tag && bytes.Equal(b.Payload, other.Payload)
}

func (b Blob) String() string {
	return fmt.Sprintf("Blob{Tag: %d, Payload: %d bytes}", b.Tag, len(b.Payload))
}

func indexPath(basePath string) string {
	return basePath + indexSuffix
}
