package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func TestEngineAppendRejectsTagRegression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	e, err := OpenWriter(path)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Append(10, 0))
	require.NoError(t, e.Append(10, 5))

	err = e.Append(5, 10)
	require.ErrorIs(t, err, ErrTagOrderViolation)

	last, ok := e.LastTag()
	require.True(t, ok)
	require.Equal(t, int64(10), last)
}

func TestEngineFirstWriteAcceptsAnyTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	e, err := OpenWriter(path)
	require.NoError(t, err)
	defer e.Close()

	_, ok := e.LastTag()
	require.False(t, ok)

	require.NoError(t, e.Append(-9223372036854775808, 0))
}

func TestEngineRecordSizesMatchHeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	e, err := OpenWriter(path)
	require.NoError(t, err)
	defer e.Close()

	for seq := uint32(1); seq <= 16; seq++ {
		require.NoError(t, e.Append(int64(seq), int64(seq)*10))
	}

	info, err := e.f.Stat()
	require.NoError(t, err)

	var want int64
	for seq := uint32(1); seq <= 16; seq++ {
		want += int64(RecordSize(Height(seq)))
	}

	require.Equal(t, want, info.Size())
}

func TestEngineBackPointersReferenceHeaderSuffixOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	e, err := OpenWriter(path)
	require.NoError(t, err)
	defer e.Close()

	// Records 1..4: record 1 has height 0, record 2 has height 1 pointing
	// back at record 1 (back[0] was set when record 1 was committed),
	// record 3 has height 1, record 4 has height 2.
	for seq := int64(1); seq <= 4; seq++ {
		require.NoError(t, e.Append(seq*2, seq*100))
	}

	require.NoError(t, e.f.Sync())

	buf, err := readFile(path)
	require.NoError(t, err)

	// Record 1 (seq=1, height=0): size 20, tag=2
	rec1, err := DecodeRecord(buf[0:RecordSize(0)], 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), rec1.Tag)
	require.Equal(t, uint32(1), rec1.Seq)

	rec1End := RecordSize(0)

	// Record 2 (seq=2, height=1): back pointer should reference record 1's
	// header suffix position, i.e. rec1End - HeaderSuffixSize.
	rec2Buf := buf[rec1End : rec1End+RecordSize(1)]
	rec2, err := DecodeRecord(rec2Buf, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), rec2.BackPointers[0].Tag)
	require.Equal(t, int64(rec1End-HeaderSuffixSize), rec2.BackPointers[0].Offset)
}
