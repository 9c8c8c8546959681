package errorlog_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusmem/agrona/errorlog"
	"github.com/nexusmem/agrona/region"
)

type fixedClock struct{ t int64 }

func (c *fixedClock) NowMillis() int64 { return c.t }

type runtimeException struct{ msg string }

func (e *runtimeException) Error() string { return e.msg }

type illegalStateException struct{ msg string }

func (e *illegalStateException) Error() string { return e.msg }

func newLog(t *testing.T, capacity int) *errorlog.Log {
	t.Helper()

	r, err := region.NewHeap(capacity, binary.LittleEndian)
	require.NoError(t, err)

	l, err := errorlog.NewLog(r)
	require.NoError(t, err)

	return l
}

// S4: two record() calls for the same error coalesce into one entry.
func TestCoalescingSameError(t *testing.T) {
	l := newLog(t, 4096)

	id := errorlog.IdentityFromError(&runtimeException{msg: "Test"})

	ok, err := l.Record(id, &fixedClock{t: 7})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Record(id, &fixedClock{t: 10})
	require.NoError(t, err)
	require.True(t, ok)

	var observations []errorlog.Observation

	require.NoError(t, l.Read(0, func(o errorlog.Observation) {
		observations = append(observations, o)
	}))

	require.Len(t, observations, 1)
	require.Equal(t, int32(2), observations[0].ObservationCount)
	require.Equal(t, int64(7), observations[0].FirstTimestamp)
	require.Equal(t, int64(10), observations[0].LastTimestamp)
}

// S5: two distinct errors never coalesce.
func TestTwoDistinctErrors(t *testing.T) {
	l := newLog(t, 4096)

	idA := errorlog.IdentityFromError(&runtimeException{msg: "A"})
	idB := errorlog.IdentityFromError(&illegalStateException{msg: "B"})

	ok, err := l.Record(idA, &fixedClock{t: 7})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Record(idB, &fixedClock{t: 10})
	require.NoError(t, err)
	require.True(t, ok)

	var observations []errorlog.Observation

	require.NoError(t, l.Read(0, func(o errorlog.Observation) {
		observations = append(observations, o)
	}))

	require.Len(t, observations, 2)

	require.Equal(t, int32(1), observations[0].ObservationCount)
	require.Equal(t, int64(7), observations[0].FirstTimestamp)
	require.Equal(t, int64(7), observations[0].LastTimestamp)
	require.Contains(t, observations[0].Encoded, "A")

	require.Equal(t, int32(1), observations[1].ObservationCount)
	require.Equal(t, int64(10), observations[1].FirstTimestamp)
	require.Equal(t, int64(10), observations[1].LastTimestamp)
	require.Contains(t, observations[1].Encoded, "B")
}

func TestRecursiveCauseChainIsEncoded(t *testing.T) {
	l := newLog(t, 4096)

	inner := &runtimeException{msg: "inner"}
	wrapped := errWrap{msg: "outer", cause: inner}

	id := errorlog.IdentityFromError(wrapped)

	ok, err := l.Record(id, &fixedClock{t: 1})
	require.NoError(t, err)
	require.True(t, ok)

	var observations []errorlog.Observation

	require.NoError(t, l.Read(0, func(o errorlog.Observation) {
		observations = append(observations, o)
	}))

	require.Len(t, observations, 1)
	require.Contains(t, observations[0].Encoded, "Caused by:")
	require.Contains(t, observations[0].Encoded, "inner")
}

type errWrap struct {
	msg   string
	cause error
}

func (e errWrap) Error() string { return e.msg }
func (e errWrap) Unwrap() error { return e.cause }

func TestReadFiltersBySinceTimestamp(t *testing.T) {
	l := newLog(t, 4096)

	idA := errorlog.IdentityFromError(&runtimeException{msg: "A"})
	idB := errorlog.IdentityFromError(&runtimeException{msg: "B"})

	_, err := l.Record(idA, &fixedClock{t: 5})
	require.NoError(t, err)

	_, err = l.Record(idB, &fixedClock{t: 50})
	require.NoError(t, err)

	var observations []errorlog.Observation

	require.NoError(t, l.Read(20, func(o errorlog.Observation) {
		observations = append(observations, o)
	}))

	require.Len(t, observations, 1)
	require.Contains(t, observations[0].Encoded, "B")
}

func TestRecordFailsWhenOutOfSpace(t *testing.T) {
	l := newLog(t, 64)

	id := errorlog.IdentityFromError(errors.New("a message long enough to not fit in a tiny log capacity at all"))

	ok, err := l.Record(id, &fixedClock{t: 1})
	require.NoError(t, err)
	require.False(t, ok)
}
