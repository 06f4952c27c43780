package index

import "errors"

// ErrTagOrderViolation is returned by Engine.Append when the given tag is
// smaller than the last tag committed in this writer session.
var ErrTagOrderViolation = errors.New("index: tag order violation")

// ErrCorrupt is returned when an offset or length read back from the
// index implies a position outside the file or a negative size.
var ErrCorrupt = errors.New("index: corrupt record")
