package broadcast

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Receiver is one reader of a broadcast buffer. Any number of Receivers may
// observe the same region concurrently; each keeps its own cursor/nextRecord
// bookkeeping and never mutates the region.
type Receiver struct {
	r        *region.Region
	capacity int
	bodyOff  int

	cursor       int64
	nextRecord   int64
	recordOffset int
	typeID       int32
	recordLength int // header + payload
	lappedCount  int64
}

// NewReceiver attaches a reader to a region previously (or concurrently)
// written by a Transmitter of the same capacity.
func NewReceiver(r *region.Region, capacity int) (*Receiver, error) {
	if err := validateCapacity(r, capacity); err != nil {
		return nil, err
	}

	return &Receiver{r: r, capacity: capacity, bodyOff: 0}, nil
}

func (recv *Receiver) trailerOff() int {
	return recv.bodyOff + recv.capacity
}

func (recv *Receiver) readHeader(recordOff int) (length int32, typeID int32, err error) {
	base := recv.bodyOff + recordOff

	length, err = recv.r.GetInt32(base + offLength)
	if err != nil {
		return 0, 0, err
	}

	typeID, err = recv.r.GetInt32(base + offTypeID)
	if err != nil {
		return 0, 0, err
	}

	return length, typeID, nil
}

// ReceiveNext advances to the next message. It returns false (with a nil
// error) when there is nothing new to read; it never blocks.
func (recv *Receiver) ReceiveNext() (bool, error) {
	tail, err := recv.r.VolatileGetInt64(recv.trailerOff() + offTail)
	if err != nil {
		return false, err
	}

	if tail <= recv.nextRecord {
		return false, nil
	}

	cursor := recv.nextRecord
	recordOff := recordOffset(cursor, recv.capacity)

	tailIntent, err := recv.r.VolatileGetInt64(recv.trailerOff() + offTailIntent)
	if err != nil {
		return false, err
	}

	if cursor+int64(recv.capacity) <= tailIntent {
		recv.lappedCount++
		cursor = recv.r.PlainGetInt64Native(recv.trailerOff() + offLatest)
		recordOff = recordOffset(cursor, recv.capacity)
	}

	length, typeID, err := recv.readHeader(recordOff)
	if err != nil {
		return false, err
	}

	nextRecord := cursor + int64(alignedLength(int(length)))

	if typeID == PaddingTypeID {
		recordOff = 0
		cursor = nextRecord

		length, typeID, err = recv.readHeader(0)
		if err != nil {
			return false, err
		}

		nextRecord = cursor + int64(alignedLength(int(length)))
	}

	recv.cursor = cursor
	recv.nextRecord = nextRecord
	recv.recordOffset = recordOff
	recv.typeID = typeID
	recv.recordLength = int(length)

	return true, nil
}

// TypeID returns the application type of the current record.
func (recv *Receiver) TypeID() int32 {
	return recv.typeID
}

// Payload returns the current record's payload as a live slice of the
// region; callers that need the bytes to survive past the next ReceiveNext
// or Validate call must copy them.
func (recv *Receiver) Payload() ([]byte, error) {
	payloadLen := recv.recordLength - headerLength
	if payloadLen < 0 {
		return nil, fmt.Errorf("broadcast: corrupt record length %d at offset %d", recv.recordLength, recv.recordOffset)
	}

	return recv.r.Slice(recv.bodyOff+recv.recordOffset+headerLength, payloadLen)
}

// LappedCount returns the number of times this Receiver has detected that
// the transmitter overtook it, losing an unknown number of records.
func (recv *Receiver) LappedCount() int64 {
	return recv.lappedCount
}

// Validate re-checks, after the caller has finished reading the current
// record's payload, that it was not overwritten in the meantime. It issues
// an acquire fence before re-evaluating the window predicate from step 3 of
// the reader protocol.
func (recv *Receiver) Validate() (bool, error) {
	region.LoadFence()

	tailIntent, err := recv.r.VolatileGetInt64(recv.trailerOff() + offTailIntent)
	if err != nil {
		return false, err
	}

	return recv.cursor+int64(recv.capacity) > tailIntent, nil
}
