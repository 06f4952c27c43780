package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/skiptag/store/internal/content"
	"github.com/skiptag/store/internal/index"
	"github.com/skiptag/store/internal/lockreg"
)

// defaultMaxBlobSize bounds an in-memory pending blob. The writer
// buffers the whole payload before committing it, so this also bounds
// worst-case memory use per open sink.
const defaultMaxBlobSize = 64 << 20 // 64MiB

// WriterOption configures a Writer at construction time.
type WriterOption func(*Writer)

// WithMaxBlobSize overrides the default cap on a single pending blob's
// size. WriteNext's returned sink rejects writes that would exceed it.
func WithMaxBlobSize(n int) WriterOption {
	return func(w *Writer) { w.maxBlobSize = n }
}

// Writer appends blobs to a store in non-decreasing tag order. It
// buffers one pending blob in memory at a time; the blob becomes visible
// to Readers only once its sink is closed and the commit has run.
//
// A Writer is not safe for concurrent use by multiple goroutines calling
// WriteNext simultaneously — there is exactly one writer session per
// store, per the store's coordination contract.
type Writer struct {
	basePath string
	content  *content.Writer
	idx      *index.Engine
	lock     *lockreg.Lock

	maxBlobSize int

	pending    *bytes.Buffer
	pendingTag int64
	pendingGen uint64
	hasPending bool

	gen    uint64
	closed bool
}

// Open creates (or truncates) the content and index files for basePath
// and returns a Writer ready to accept WriteNext calls.
func Open(basePath string, opts ...WriterOption) (*Writer, error) {
	c, err := content.OpenWriter(basePath)
	if err != nil {
		return nil, err
	}

	idx, err := index.OpenWriter(indexPath(basePath))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	w := &Writer{
		basePath:    basePath,
		content:     c,
		idx:         idx,
		lock:        lockreg.Acquire(basePath),
		maxBlobSize: defaultMaxBlobSize,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// WriteNext begins a new blob tagged tag. If a blob from a previous call
// is still open, it is committed first. WriteNext fails with
// ErrTagOrderViolation, leaving the writer's state unchanged, if tag is
// smaller than the last tag committed this session; the very first call
// accepts any tag.
func (w *Writer) WriteNext(tag int64) (io.WriteCloser, error) {
	if w.closed {
		return nil, fmt.Errorf("store: writer closed: %w", os.ErrClosed)
	}

	if w.hasPending {
		if err := w.commitPending(); err != nil {
			return nil, err
		}
	}

	if last, ok := w.idx.LastTag(); ok && tag < last {
		return nil, fmt.Errorf("%w: tag %d follows tag %d", ErrTagOrderViolation, tag, last)
	}

	w.gen++
	w.pending = &bytes.Buffer{}
	w.pendingTag = tag
	w.pendingGen = w.gen
	w.hasPending = true

	return &blobSink{w: w, gen: w.gen}, nil
}

// commitPending appends the pending blob's content record and index
// record under the write lock, making it visible to readers.
func (w *Writer) commitPending() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	payload := w.pending.Bytes()

	offset, err := w.content.Append(payload)
	if err != nil {
		return fmt.Errorf("store: append payload: %w", err)
	}

	if err := w.idx.Append(w.pendingTag, offset); err != nil {
		// WriteNext already rejects a regressing tag before any content is
		// buffered, so this should be unreachable in practice; translate it
		// to the store-level sentinel anyway so it's never a dead error
		// value callers can't check for with errors.Is.
		if errors.Is(err, index.ErrTagOrderViolation) {
			return fmt.Errorf("%w: %v", ErrTagOrderViolation, err)
		}
		return err
	}

	w.hasPending = false
	w.pending = nil

	return nil
}

// Close commits the pending blob, if any, then releases both file
// handles and the store's shared lock. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if w.hasPending {
		if err := w.commitPending(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.content.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("store: sync content: %w", err))
	}
	if err := w.idx.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("store: sync index: %w", err))
	}
	if err := w.content.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: close content: %w", err))
	}
	if err := w.idx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: close index: %w", err))
	}
	w.lock.Release()

	return errors.Join(errs...)
}

// Delete closes and removes both the content and index files,
// discarding any uncommitted pending blob.
func (w *Writer) Delete() error {
	w.closed = true

	var errs []error
	if err := w.content.Delete(); err != nil {
		errs = append(errs, fmt.Errorf("store: delete content: %w", err))
	}
	if err := w.idx.Delete(); err != nil {
		errs = append(errs, fmt.Errorf("store: delete index: %w", err))
	}
	w.lock.Release()

	return errors.Join(errs...)
}

// blobSink is the io.WriteCloser handed back by WriteNext. gen pins it to
// the pending blob it was created for, so a stale sink left open past a
// later WriteNext call can't commit (or re-commit) the wrong blob.
type blobSink struct {
	w      *Writer
	gen    uint64
	closed bool
}

func (s *blobSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("store: write to closed sink: %w", os.ErrClosed)
	}
	if !s.w.hasPending || s.w.pendingGen != s.gen {
		return 0, fmt.Errorf("store: sink superseded by a later WriteNext call")
	}
	if s.w.pending.Len()+len(p) > s.w.maxBlobSize {
		return 0, fmt.Errorf("store: blob exceeds max size %d bytes", s.w.maxBlobSize)
	}
	return s.w.pending.Write(p)
}

// Close commits this sink's blob. Closing an already-closed sink, or one
// superseded by a later WriteNext, is a no-op, matching io.Closer
// convention for the former and the "previous blob closes automatically"
// contract for the latter.
func (s *blobSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if !s.w.hasPending || s.w.pendingGen != s.gen {
		return nil
	}
	return s.w.commitPending()
}
