package store

import (
	"errors"
	"fmt"

	"github.com/skiptag/store/internal/content"
	"github.com/skiptag/store/internal/index"
	"github.com/skiptag/store/internal/lockreg"
)

// Reader searches a store's index and fetches matching payloads. Every
// call re-opens the search at the index tail, so a Reader always sees
// whatever a concurrent Writer has committed before the call began.
//
// A Reader is safe for concurrent use by multiple goroutines: every
// operation takes the store's shared read lock, which any number of
// Readers may hold at once as long as no Writer holds the write lock.
type Reader struct {
	content *content.Reader
	idx     *index.ReadEngine
	lock    *lockreg.Lock
	closed  bool
}

// OpenReader opens a store for reading at basePath. It is an error if
// either the content or index file does not exist.
func OpenReader(basePath string) (*Reader, error) {
	c, err := content.OpenReader(basePath)
	if err != nil {
		return nil, err
	}

	idx, err := index.OpenReader(indexPath(basePath))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return &Reader{
		content: c,
		idx:     idx,
		lock:    lockreg.Acquire(basePath),
	}, nil
}

// At returns the blob tagged exactly tag. found is false if no such
// blob has been committed. Among duplicate tags, the first one written
// is returned.
func (r *Reader) At(tag int64) (Blob, bool, error) {
	return r.lookup(tag, index.Match)
}

// Floor returns the blob with the largest tag <= tag. found is false if
// every committed tag is greater than tag, or the store is empty. Among
// duplicates of that tag, the first one written is returned.
func (r *Reader) Floor(tag int64) (Blob, bool, error) {
	return r.lookup(tag, index.Floor)
}

// Ceil returns the blob with the smallest tag >= tag. found is false if
// every committed tag is smaller than tag, or the store is empty. Among
// duplicates of that tag, the first one written is returned; this is
// also the blob a Range(tag, tag+1) walk would start from.
func (r *Reader) Ceil(tag int64) (Blob, bool, error) {
	return r.lookup(tag, index.Ceil)
}

func (r *Reader) lookup(tag int64, policy index.Policy) (Blob, bool, error) {
	if r.closed {
		return Blob{}, false, fmt.Errorf("store: reader closed")
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	cur, err := r.idx.Search(tag, policy)
	if err != nil {
		return Blob{}, false, wrapIndexErr(err)
	}
	if cur == nil {
		return Blob{}, false, nil
	}

	blob, err := r.blobAt(cur)
	if err != nil {
		return Blob{}, false, err
	}
	return blob, true, nil
}

// Range returns every committed blob whose tag lies in [start, end), in
// ascending tag order. It returns a nil slice, never an error, when
// nothing falls in the range.
func (r *Reader) Range(start, end int64) ([]Blob, error) {
	if r.closed {
		return nil, fmt.Errorf("store: reader closed")
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	cursors, err := r.idx.Range(start, end)
	if err != nil {
		return nil, wrapIndexErr(err)
	}
	if len(cursors) == 0 {
		return nil, nil
	}

	blobs := make([]Blob, len(cursors))
	for i, cur := range cursors {
		blob, err := r.blobAt(cur)
		if err != nil {
			return nil, err
		}
		blobs[i] = blob
	}
	return blobs, nil
}

func (r *Reader) blobAt(cur *index.Cursor) (Blob, error) {
	off, err := cur.PayloadOffset()
	if err != nil {
		return Blob{}, wrapIndexErr(err)
	}

	payload, err := r.content.ReadAt(off)
	if err != nil {
		if errors.Is(err, content.ErrCorrupt) {
			return Blob{}, fmt.Errorf("%w: payload offset %d: %v", ErrCorruptIndex, off, err)
		}
		return Blob{}, fmt.Errorf("store: read payload: %w", err)
	}

	return Blob{Tag: cur.Tag(), Payload: payload}, nil
}

// Close releases the Reader's file handles and the store's shared lock.
// Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err1 := r.content.Close()
	err2 := r.idx.Close()
	r.lock.Release()

	if err1 != nil {
		return fmt.Errorf("store: close content: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("store: close index: %w", err2)
	}
	return nil
}

func wrapIndexErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
}
