package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt32RoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 42, -42, 1 << 30, -(1 << 30), 2147483647, -2147483648}

	for _, v := range cases {
		buf := make([]byte, Int32Size)
		PutInt32(buf, v)
		require.Equal(t, v, Int32(buf))
	}
}

func TestInt64RoundTrip(t *testing.T) {
	cases := []int64{
		0, 1, -1, 42, -42,
		1 << 40, -(1 << 40),
		9223372036854775807,  // math.MaxInt64
		-9223372036854775808, // math.MinInt64
	}

	for _, v := range cases {
		buf := make([]byte, Int64Size)
		PutInt64(buf, v)
		require.Equal(t, v, Int64(buf))
	}
}

func TestInt32BigEndianByteOrder(t *testing.T) {
	buf := make([]byte, Int32Size)
	PutInt32(buf, 0x01020304)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)
}

func TestInt64SplitIntoHighLowHalves(t *testing.T) {
	buf := make([]byte, Int64Size)
	PutInt64(buf, 0x0102030405060708)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf[0:4])
	require.Equal(t, []byte{0x05, 0x06, 0x07, 0x08}, buf[4:8])
}
