// Package countio wraps an io.Writer to track the number of bytes written
// to it so far, letting callers learn their current position in a stream
// without a Seek call.
package countio

import "io"

// Writer wraps an underlying io.Writer and counts the bytes the
// underlying writer reports as written.
type Writer struct {
	w     io.Writer
	count int64
}

// New wraps w in a counting Writer starting at count 0.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write delegates to the underlying writer and adds the number of bytes
// actually written to the running count before returning.
func (c *Writer) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}

// Count returns the total number of bytes successfully written since
// construction.
func (c *Writer) Count() int64 {
	return c.count
}
