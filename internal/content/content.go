// Package content manages the content file half of a store: a flat
// concatenation of length-prefixed payload records, written once and read
// back at arbitrary offsets.
package content

import (
	"fmt"
	"io"
	"os"

	"github.com/skiptag/store/internal/codec"
	"github.com/skiptag/store/internal/countio"
)

// lengthPrefixSize is the width of the int32 length header in front of
// every payload record.
const lengthPrefixSize = codec.Int32Size

// ErrCorrupt is returned when a stored length implies a record that cannot
// fit in the file, or is negative.
var ErrCorrupt = fmt.Errorf("content: corrupt record")

// Writer appends length-prefixed payload records to a content file and
// tracks the current end-of-file offset without reseeking for it.
type Writer struct {
	f       *os.File
	counter *countio.Writer
}

// OpenWriter creates (or truncates) the content file at path for append
// writing.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("content: open writer: %w", err)
	}

	return &Writer{f: f, counter: countio.New(f)}, nil
}

// Offset returns the byte offset at which the next Append call will place
// its length prefix.
func (w *Writer) Offset() int64 {
	return w.counter.Count()
}

// Append writes payload as a length-prefixed record and returns the offset
// at which the record begins.
func (w *Writer) Append(payload []byte) (int64, error) {
	offset := w.counter.Count()

	var lenBuf [lengthPrefixSize]byte
	codec.PutInt32(lenBuf[:], int32(len(payload)))

	if _, err := w.counter.Write(lenBuf[:]); err != nil {
		return 0, fmt.Errorf("content: write length: %w", err)
	}
	if _, err := w.counter.Write(payload); err != nil {
		return 0, fmt.Errorf("content: write payload: %w", err)
	}

	return offset, nil
}

// Sync flushes the content file to stable storage.
func (w *Writer) Sync() error {
	return w.f.Sync()
}

// Close closes the underlying file handle.
func (w *Writer) Close() error {
	return w.f.Close()
}

// Delete closes and removes the underlying file.
func (w *Writer) Delete() error {
	name := w.f.Name()
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("content: close before delete: %w", err)
	}
	return os.Remove(name)
}

// Reader reads length-prefixed payload records at arbitrary offsets from a
// read-only content file.
type Reader struct {
	f *os.File
}

// OpenReader opens the content file at path read-only. The file may be
// empty.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("content: open reader: %w", err)
	}
	return &Reader{f: f}, nil
}

// ReadAt reads the length-prefixed payload record beginning at offset.
func (r *Reader) ReadAt(offset int64) ([]byte, error) {
	var lenBuf [lengthPrefixSize]byte
	if _, err := r.f.ReadAt(lenBuf[:], offset); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: truncated length prefix at offset %d", ErrCorrupt, offset)
		}
		return nil, fmt.Errorf("content: read length at offset %d: %w", offset, err)
	}

	n := codec.Int32(lenBuf[:])
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at offset %d", ErrCorrupt, n, offset)
	}

	info, err := r.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("content: stat: %w", err)
	}
	if offset+lengthPrefixSize+int64(n) > info.Size() {
		return nil, fmt.Errorf("%w: length %d at offset %d runs past end of file", ErrCorrupt, n, offset)
	}

	payload := make([]byte, n)
	if n > 0 {
		if _, err := r.f.ReadAt(payload, offset+lengthPrefixSize); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: truncated payload at offset %d", ErrCorrupt, offset)
			}
			return nil, fmt.Errorf("content: read payload at offset %d: %w", offset, err)
		}
	}

	return payload, nil
}

// Close closes the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}
