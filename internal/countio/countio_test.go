package countio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountTracksBytesWritten(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	require.Equal(t, int64(0), w.Count())

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(5), w.Count())

	_, err = w.Write([]byte(" world"))
	require.NoError(t, err)
	require.Equal(t, int64(11), w.Count())

	require.Equal(t, "hello world", buf.String())
}

func TestCountIsMonotonicAcrossEmptyWrites(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	_, _ = w.Write(nil)
	require.Equal(t, int64(0), w.Count())

	_, _ = w.Write([]byte("x"))
	require.Equal(t, int64(1), w.Count())
}
