package region_test

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nexusmem/agrona/region"
)

func TestNewRejectsEmptyCapacity(t *testing.T) {
	_, err := region.NewHeap(0, binary.LittleEndian)
	require.ErrorIs(t, err, region.ErrInvalidArgument)
}

func TestBoundsChecking(t *testing.T) {
	r, err := region.NewHeap(16, binary.LittleEndian)
	require.NoError(t, err)

	require.NoError(t, r.PutInt64(8, 42))

	_, err = r.GetInt64(9)
	require.ErrorIs(t, err, region.ErrOutOfBounds)

	_, err = r.GetInt32(-1)
	require.ErrorIs(t, err, region.ErrOutOfBounds)

	_, err = r.GetByte(16)
	require.ErrorIs(t, err, region.ErrOutOfBounds)
}

func TestPrimitiveRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		r, err := region.NewHeap(64, order)
		require.NoError(t, err)

		require.NoError(t, r.PutInt32(0, -7))
		got32, err := r.GetInt32(0)
		require.NoError(t, err)
		require.Equal(t, int32(-7), got32)

		require.NoError(t, r.PutInt16(4, -300))
		got16, err := r.GetInt16(4)
		require.NoError(t, err)
		require.Equal(t, int16(-300), got16)

		require.NoError(t, r.PutUint16(6, 0xBEEF))
		gotU16, err := r.GetUint16(6)
		require.NoError(t, err)
		require.Equal(t, uint16(0xBEEF), gotU16)

		require.NoError(t, r.PutUint64(8, 1<<63))
		gotU64, err := r.GetUint64(8)
		require.NoError(t, err)
		require.Equal(t, uint64(1)<<63, gotU64)

		require.NoError(t, r.PutInt64(16, -123456789))
		got64, err := r.GetInt64(16)
		require.NoError(t, err)
		require.Equal(t, int64(-123456789), got64)
	}
}

func TestStringRoundTripASCII(t *testing.T) {
	r, err := region.NewHeap(256, binary.LittleEndian)
	require.NoError(t, err)

	for _, s := range []string{"", "hello", "!@#$%^&*() printable ASCII~"} {
		n, err := r.PutStringAscii(0, s)
		require.NoError(t, err)
		require.Equal(t, 4+len(s), n)

		got, err := r.GetStringAscii(0)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestStringRoundTripUTF8(t *testing.T) {
	r, err := region.NewHeap(256, binary.LittleEndian)
	require.NoError(t, err)

	for _, s := range []string{"", "héllo wörld", "日本語テスト", "🎉🚀"} {
		_, err := r.PutStringUTF8(0, s)
		require.NoError(t, err)

		got, err := r.GetStringUTF8(0)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestPutStringAsciiRejectsNonASCII(t *testing.T) {
	r, err := region.NewHeap(64, binary.LittleEndian)
	require.NoError(t, err)

	_, err = r.PutStringAscii(0, "日本語")
	require.ErrorIs(t, err, region.ErrInvalidArgument)
}

func TestCopyInOutAndSlice(t *testing.T) {
	r, err := region.NewHeap(32, binary.LittleEndian)
	require.NoError(t, err)

	require.NoError(t, r.CopyIn(4, []byte{1, 2, 3, 4}))

	out, err := r.CopyOut(4, 4)
	require.NoError(t, err)
	require.True(t, cmp.Equal([]byte{1, 2, 3, 4}, out))

	live, err := r.Slice(4, 4)
	require.NoError(t, err)
	live[0] = 0xFF

	out2, err := r.CopyOut(4, 1)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), out2[0])
}

func TestSetMemory(t *testing.T) {
	r, err := region.NewHeap(8, binary.LittleEndian)
	require.NoError(t, err)

	require.NoError(t, r.SetMemory(0, 8, 0xAB))

	out, err := r.CopyOut(0, 8)
	require.NoError(t, err)

	for _, b := range out {
		require.Equal(t, byte(0xAB), b)
	}
}

func TestAtomicAccessors(t *testing.T) {
	r, err := region.NewHeap(16, binary.LittleEndian)
	require.NoError(t, err)

	require.NoError(t, r.OrderedPutInt64(0, 10))

	got, err := r.VolatileGetInt64(0)
	require.NoError(t, err)
	require.Equal(t, int64(10), got)

	swapped, err := r.CompareAndSetInt64(0, 10, 20)
	require.NoError(t, err)
	require.True(t, swapped)

	swapped, err = r.CompareAndSetInt64(0, 10, 30)
	require.NoError(t, err)
	require.False(t, swapped)

	prev, err := r.GetAndAddInt64(0, 5)
	require.NoError(t, err)
	require.Equal(t, int64(20), prev)

	got, err = r.VolatileGetInt64(0)
	require.NoError(t, err)
	require.Equal(t, int64(25), got)

	prevSet, err := r.GetAndSetInt64(0, 99)
	require.NoError(t, err)
	require.Equal(t, int64(25), prevSet)
}

func TestAtomic64RequiresAlignedOffset(t *testing.T) {
	r, err := region.NewHeap(16, binary.LittleEndian)
	require.NoError(t, err)

	_, err = r.VolatileGetInt64(1)
	require.ErrorIs(t, err, region.ErrInvalidArgument)
}

func TestAlignHelpers(t *testing.T) {
	require.Equal(t, 8, region.Align8(1))
	require.Equal(t, 0, region.Align8(0))
	require.Equal(t, 16, region.Align8(9))
	require.True(t, region.IsPowerOfTwo(1024))
	require.False(t, region.IsPowerOfTwo(777))
}
