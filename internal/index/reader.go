package index

import (
	"fmt"
	"os"

	"github.com/skiptag/store/internal/codec"
)

// Policy selects which record a Search returns relative to a query tag.
type Policy int

const (
	// Match requires an exact tag equality.
	Match Policy = iota
	// Floor selects the largest tag <= the query.
	Floor
	// Ceil selects the smallest tag >= the query.
	Ceil
)

// ReadEngine is the reader-side half of the index: a read-only handle on
// the index file plus the byte-range reads the skip descent needs.
type ReadEngine struct {
	f *os.File
}

// OpenReader opens the index file at path read-only. The file may be
// empty (a brand new store with no committed records yet).
func OpenReader(path string) (*ReadEngine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open reader: %w", err)
	}
	return &ReadEngine{f: f}, nil
}

// Close closes the underlying file handle.
func (e *ReadEngine) Close() error {
	return e.f.Close()
}

// Size returns the current length of the index file.
func (e *ReadEngine) Size() (int64, error) {
	info, err := e.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("index: stat: %w", err)
	}
	return info.Size(), nil
}

// Cursor tracks a position in the index file and caches the 12-byte
// header suffix read from that position.
type Cursor struct {
	e      *ReadEngine
	pos    int64
	suffix HeaderSuffix
}

// Seq returns the cached record's sequence number.
func (c *Cursor) Seq() uint32 { return c.suffix.Seq }

// Tag returns the cached record's tag.
func (c *Cursor) Tag() int64 { return c.suffix.Tag }

// Height returns the number of back pointers the cached record stores.
func (c *Cursor) Height() int { return Height(c.suffix.Seq) }

// Pos returns the index-file offset of the cached record's header
// suffix.
func (c *Cursor) Pos() int64 { return c.pos }

// at reads and caches the header suffix at the given offset.
func (e *ReadEngine) at(pos int64) (*Cursor, error) {
	if pos < 0 {
		return nil, fmt.Errorf("%w: negative header suffix offset %d", ErrCorrupt, pos)
	}

	var buf [HeaderSuffixSize]byte
	if _, err := e.f.ReadAt(buf[:], pos); err != nil {
		return nil, fmt.Errorf("%w: read header suffix at %d: %v", ErrCorrupt, pos, err)
	}

	suffix, err := DecodeHeaderSuffix(buf[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &Cursor{e: e, pos: pos, suffix: suffix}, nil
}

// Last seats a cursor on the final record in the index file. It returns
// (nil, nil) if the index is empty.
func (e *ReadEngine) Last() (*Cursor, error) {
	size, err := e.Size()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	if size < HeaderSuffixSize {
		return nil, fmt.Errorf("%w: index file truncated at %d bytes", ErrCorrupt, size)
	}

	return e.at(size - HeaderSuffixSize)
}

// backPointers reads the cursor's back pointers from the index file.
func (c *Cursor) backPointers() ([]BackPointer, error) {
	h := c.Height()
	if h == 0 {
		return nil, nil
	}

	start := c.pos - int64(h)*BackPointerSize - codec.Int64Size
	if start < 0 {
		return nil, fmt.Errorf("%w: back pointer region starts before file start at record seq %d", ErrCorrupt, c.Seq())
	}

	buf := make([]byte, h*BackPointerSize)
	if _, err := c.e.f.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("%w: read back pointers: %v", ErrCorrupt, err)
	}

	bps := make([]BackPointer, h)
	for i := 0; i < h; i++ {
		base := i * BackPointerSize
		bps[i] = BackPointer{
			Tag:    codec.Int64(buf[base : base+8]),
			Offset: codec.Int64(buf[base+8 : base+16]),
		}
	}
	return bps, nil
}

// PayloadOffset reads the content-file offset stored in the cursor's
// record.
func (c *Cursor) PayloadOffset() (int64, error) {
	pos := c.pos - codec.Int64Size
	if pos < 0 {
		return 0, fmt.Errorf("%w: payload offset field starts before file start at record seq %d", ErrCorrupt, c.Seq())
	}

	var buf [codec.Int64Size]byte
	if _, err := c.e.f.ReadAt(buf[:], pos); err != nil {
		return 0, fmt.Errorf("%w: read payload offset: %v", ErrCorrupt, err)
	}

	off := codec.Int64(buf[:])
	if off < 0 {
		return 0, fmt.Errorf("%w: negative payload offset %d at record seq %d", ErrCorrupt, off, c.Seq())
	}
	return off, nil
}

// Search performs the skip-list descent for tag under policy, starting
// from the tail of the index. It returns (nil, nil) when no record
// satisfies the policy, never an error, for a well-formed index.
//
// When more than one record shares the tag the descent lands on, the
// result is rewound to the earliest-seq (first written) one of them, so
// that Ceil's result is a valid start for a forward Range walk over a
// run of duplicate tags, and Match/Floor agree with that same
// first-written convention.
func (e *ReadEngine) Search(tag int64, policy Policy) (*Cursor, error) {
	cur, err := e.Last()
	if err != nil || cur == nil {
		return cur, err
	}

	for {
		t := cur.Tag()

		if t == tag {
			return e.earliestWithSameTag(cur)
		}

		if t < tag {
			// Only reachable on the very first iteration: the newest
			// record's tag already falls short of the query, so no
			// descent can help.
			if policy == Floor {
				return e.earliestWithSameTag(cur)
			}
			return nil, nil
		}

		// t > tag: consult back pointers, highest level first.
		bps, err := cur.backPointers()
		if err != nil {
			return nil, err
		}

		chosen := -1
		for i := len(bps) - 1; i >= 0; i-- {
			if bps[i].Tag >= tag {
				chosen = i
				break
			}
		}

		if chosen == -1 {
			switch policy {
			case Match:
				return nil, nil
			case Ceil:
				return e.earliestWithSameTag(cur)
			case Floor:
				if len(bps) == 0 {
					return nil, nil
				}
				prev, err := e.at(bps[0].Offset)
				if err != nil {
					return nil, err
				}
				return e.earliestWithSameTag(prev)
			}
		}

		cur, err = e.at(bps[chosen].Offset)
		if err != nil {
			return nil, err
		}
	}
}

// earliestWithSameTag walks cur backwards one record at a time, via each
// record's level-0 back pointer (which always targets seq-1), for as
// long as the predecessor's tag matches cur's. It returns the
// earliest-seq record in that run of equal tags.
func (e *ReadEngine) earliestWithSameTag(cur *Cursor) (*Cursor, error) {
	for {
		bps, err := cur.backPointers()
		if err != nil {
			return nil, err
		}
		if len(bps) == 0 || bps[0].Tag != cur.Tag() {
			return cur, nil
		}

		prev, err := e.at(bps[0].Offset)
		if err != nil {
			return nil, err
		}
		cur = prev
	}
}

// Next seats a cursor on the record immediately following cur in append
// order, or returns (nil, nil) if cur is the last record in the index.
func (e *ReadEngine) Next(cur *Cursor) (*Cursor, error) {
	size, err := e.Size()
	if err != nil {
		return nil, err
	}

	nextSeq := cur.Seq() + 1
	nextHeight := Height(nextSeq)
	nextPos := cur.pos + int64(nextHeight)*BackPointerSize + codec.Int64Size + HeaderSuffixSize

	if nextPos+HeaderSuffixSize > size {
		return nil, nil
	}

	return e.at(nextPos)
}

// Range returns cursors for every record whose tag lies in [start, end),
// in ascending tag (== append) order. It returns a nil slice, never an
// error, when nothing falls in range.
func (e *ReadEngine) Range(start, end int64) ([]*Cursor, error) {
	if start >= end {
		return nil, nil
	}

	cur, err := e.Search(start, Ceil)
	if err != nil || cur == nil || cur.Tag() >= end {
		return nil, err
	}

	var out []*Cursor
	for cur != nil && cur.Tag() < end {
		out = append(out, cur)
		cur, err = e.Next(cur)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
