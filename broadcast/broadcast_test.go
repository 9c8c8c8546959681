package broadcast_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusmem/agrona/broadcast"
	"github.com/nexusmem/agrona/region"
)

func newRegion(t *testing.T, bodyCapacity int) *region.Region {
	t.Helper()

	r, err := region.NewHeap(bodyCapacity+broadcast.TrailerLength, binary.LittleEndian)
	require.NoError(t, err)

	return r
}

// S1: broadcast first message.
func TestFirstMessage(t *testing.T) {
	r := newRegion(t, 1024)

	tx, err := broadcast.NewTransmitter(r, 1024)
	require.NoError(t, err)
	defer tx.Close()

	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	require.NoError(t, tx.Transmit(7, payload))

	rx, err := broadcast.NewReceiver(r, 1024)
	require.NoError(t, err)

	ok, err := rx.ReceiveNext()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, int32(7), rx.TypeID())

	got, err := rx.Payload()
	require.NoError(t, err)
	require.Equal(t, payload, got)

	valid, err := rx.Validate()
	require.NoError(t, err)
	require.True(t, valid)

	require.Equal(t, int64(0), rx.LappedCount())
}

// Invariant 1: in-order delivery with no loss, typeId preserved.
func TestInOrderDeliveryNoLoss(t *testing.T) {
	r := newRegion(t, 4096)

	tx, err := broadcast.NewTransmitter(r, 4096)
	require.NoError(t, err)
	defer tx.Close()

	rx, err := broadcast.NewReceiver(r, 4096)
	require.NoError(t, err)

	const n = 5
	for i := int32(1); i <= n; i++ {
		require.NoError(t, tx.Transmit(i, []byte{byte(i)}))
	}

	for i := int32(1); i <= n; i++ {
		ok, err := rx.ReceiveNext()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, rx.TypeID())

		payload, err := rx.Payload()
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, payload)
	}

	ok, err := rx.ReceiveNext()
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, int64(0), rx.LappedCount())
}

// Only one transmitter may be active per region.
func TestSecondTransmitterRejected(t *testing.T) {
	r := newRegion(t, 1024)

	tx, err := broadcast.NewTransmitter(r, 1024)
	require.NoError(t, err)
	defer tx.Close()

	_, err = broadcast.NewTransmitter(r, 1024)
	require.ErrorIs(t, err, broadcast.ErrTransmitterActive)

	tx.Close()

	tx2, err := broadcast.NewTransmitter(r, 1024)
	require.NoError(t, err)
	tx2.Close()
}

func TestTransmitRejectsInvalidTypeID(t *testing.T) {
	r := newRegion(t, 1024)

	tx, err := broadcast.NewTransmitter(r, 1024)
	require.NoError(t, err)
	defer tx.Close()

	err = tx.Transmit(0, []byte{1})
	require.ErrorIs(t, err, broadcast.ErrInvalidArgument)
}

func TestTransmitRejectsOversizePayload(t *testing.T) {
	r := newRegion(t, 64)

	tx, err := broadcast.NewTransmitter(r, 64)
	require.NoError(t, err)
	defer tx.Close()

	err = tx.Transmit(1, make([]byte, broadcast.MaxMessageLength(64)+1))
	require.ErrorIs(t, err, broadcast.ErrInvalidArgument)
}

// Invariant 2: a writer that laps a slow reader is detected, and after
// resync the next record delivered is the current latest.
func TestLapDetection(t *testing.T) {
	capacity := 128 // small so a handful of messages wrap the buffer

	r := newRegion(t, capacity)

	tx, err := broadcast.NewTransmitter(r, capacity)
	require.NoError(t, err)
	defer tx.Close()

	rx, err := broadcast.NewReceiver(r, capacity)
	require.NoError(t, err)

	// First message establishes the reader's cursor.
	require.NoError(t, tx.Transmit(1, []byte{0xAA}))

	ok, err := rx.ReceiveNext()
	require.NoError(t, err)
	require.True(t, ok)

	// Transmit enough further messages, without the reader draining, to
	// wrap the small buffer at least once past the reader's retained record.
	var lastTypeID int32
	for i := int32(2); i <= 40; i++ {
		require.NoError(t, tx.Transmit(i, []byte{byte(i)}))
		lastTypeID = i
	}

	ok, err = rx.ReceiveNext()
	require.NoError(t, err)
	require.True(t, ok)

	require.Greater(t, rx.LappedCount(), int64(0))
	require.Equal(t, lastTypeID, rx.TypeID())
}

func TestValidateFalseAfterOverwrite(t *testing.T) {
	capacity := 64

	r := newRegion(t, capacity)

	tx, err := broadcast.NewTransmitter(r, capacity)
	require.NoError(t, err)
	defer tx.Close()

	rx, err := broadcast.NewReceiver(r, capacity)
	require.NoError(t, err)

	require.NoError(t, tx.Transmit(1, []byte{0x01}))

	ok, err := rx.ReceiveNext()
	require.NoError(t, err)
	require.True(t, ok)

	for i := int32(2); i <= 30; i++ {
		require.NoError(t, tx.Transmit(i, []byte{byte(i)}))
	}

	valid, err := rx.Validate()
	require.NoError(t, err)
	require.False(t, valid)
}
