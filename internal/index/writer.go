package index

import (
	"fmt"
	"os"

	"github.com/skiptag/store/internal/countio"
)

// maxLevels bounds the back/backTag arrays. A seq that is a power of two
// up to 2^31 has update height 32, so 32 levels is always enough for any
// value a uint32 sequence number can reach.
const maxLevels = 32

// Engine is the writer-side half of the index: it owns the index file
// handle and the per-level back-pointer state described in the data
// model, and appends one record per committed blob.
type Engine struct {
	f       *os.File
	counter *countio.Writer

	seq        uint32 // next sequence number to assign
	hasWritten bool
	lastTag    int64

	back    [maxLevels]int64
	backTag [maxLevels]int64
}

// OpenWriter creates (or truncates) the index file at path and returns a
// fresh Engine with seq starting at 1.
func OpenWriter(path string) (*Engine, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("index: open writer: %w", err)
	}

	return &Engine{
		f:       f,
		counter: countio.New(f),
		seq:     1,
	}, nil
}

// LastTag returns the tag of the most recently appended record, and
// whether any record has been appended yet in this session.
func (e *Engine) LastTag() (int64, bool) {
	return e.lastTag, e.hasWritten
}

// Append commits one index record for tag, whose payload begins at
// payloadOffset in the content file. It returns ErrTagOrderViolation
// without writing anything if tag regresses behind the last tag
// committed this session.
func (e *Engine) Append(tag int64, payloadOffset int64) error {
	if e.hasWritten && tag < e.lastTag {
		return fmt.Errorf("%w: tag %d follows tag %d", ErrTagOrderViolation, tag, e.lastTag)
	}

	h := Height(e.seq)
	var backPointers []BackPointer
	if h > 0 {
		backPointers = make([]BackPointer, h)
		for i := 0; i < h; i++ {
			backPointers[i] = BackPointer{Tag: e.backTag[i], Offset: e.back[i]}
		}
	}

	rec := Record{
		BackPointers:  backPointers,
		PayloadOffset: payloadOffset,
		Seq:           e.seq,
		Tag:           tag,
	}

	offsetBefore := e.counter.Count()
	buf := rec.Encode(make([]byte, 0, rec.Size()))
	if _, err := e.counter.Write(buf); err != nil {
		return fmt.Errorf("index: write record: %w", err)
	}

	newPos := offsetBefore + int64(len(buf)) - int64(HeaderSuffixSize)

	uh := UpdateHeight(e.seq)
	for i := 0; i < uh; i++ {
		e.back[i] = newPos
		e.backTag[i] = tag
	}

	e.seq++
	e.lastTag = tag
	e.hasWritten = true

	return nil
}

// Sync flushes the index file to stable storage.
func (e *Engine) Sync() error {
	return e.f.Sync()
}

// Close closes the underlying file handle.
func (e *Engine) Close() error {
	return e.f.Close()
}

// Delete closes and removes the underlying file.
func (e *Engine) Delete() error {
	name := e.f.Name()
	if err := e.f.Close(); err != nil {
		return fmt.Errorf("index: close before delete: %w", err)
	}
	return os.Remove(name)
}
