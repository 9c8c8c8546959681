package broadcast

import (
	"fmt"
	"sync"

	"github.com/nexusmem/agrona/region"
)

// activeTransmitters tracks which regions currently have a live Transmitter,
// enforcing the single-writer-per-region invariant. Keyed on the region's
// identity since a broadcast buffer has no path of its own.
var activeTransmitters sync.Map // map[*region.Region]struct{}

// Transmitter is the single writer of a broadcast buffer. A Transmitter
// keeps its own copy of tail rather than re-reading it from the region on
// every call, since it never shares that role with another writer.
type Transmitter struct {
	r        *region.Region
	capacity int
	bodyOff  int
	tail     int64
}

// NewTransmitter claims region r as a capacity-byte power-of-two broadcast
// body plus trailer, starting at byte 0. It fails with ErrTransmitterActive
// if another live Transmitter already owns r.
func NewTransmitter(r *region.Region, capacity int) (*Transmitter, error) {
	if err := validateCapacity(r, capacity); err != nil {
		return nil, err
	}

	if _, loaded := activeTransmitters.LoadOrStore(r, struct{}{}); loaded {
		return nil, ErrTransmitterActive
	}

	return &Transmitter{r: r, capacity: capacity, bodyOff: 0}, nil
}

// Close releases this Transmitter's claim on its region, allowing a future
// NewTransmitter call against the same region to succeed. It does not alter
// buffer contents.
func (t *Transmitter) Close() {
	activeTransmitters.Delete(t.r)
}

func (t *Transmitter) trailerOff() int {
	return t.bodyOff + t.capacity
}

// Transmit publishes one message of the given application typeId and
// payload: tail intent first, wrap padding if needed, then header, payload,
// latest, and finally the ordered tail advance that makes it visible.
func (t *Transmitter) Transmit(typeID int32, payload []byte) error {
	if typeID < 1 {
		return fmt.Errorf("broadcast: typeId %d is < 1: %w", typeID, ErrInvalidArgument)
	}

	maxLen := MaxMessageLength(t.capacity)
	if len(payload) > maxLen {
		return fmt.Errorf("broadcast: payload length %d exceeds max %d: %w", len(payload), maxLen, ErrInvalidArgument)
	}

	recordLen := headerLength + len(payload)
	alignedLen := alignedLength(recordLen)

	tail := t.tail
	recOff := recordOffset(tail, t.capacity)
	newTail := tail + int64(alignedLen)

	if t.capacity-recOff < alignedLen {
		padLen := t.capacity - recOff

		if err := t.publishTailIntent(newTail + int64(padLen)); err != nil {
			return err
		}

		if err := t.writeHeader(recOff, padLen, PaddingTypeID); err != nil {
			return err
		}

		tail += int64(padLen)
		recOff = 0
		newTail = tail + int64(alignedLen)
	}

	if err := t.publishTailIntent(newTail); err != nil {
		return err
	}

	if err := t.writeHeader(recOff, recordLen, typeID); err != nil {
		return err
	}

	if len(payload) > 0 {
		if err := t.r.CopyIn(t.bodyOff+recOff+headerLength, payload); err != nil {
			return err
		}
	}

	if err := t.publishLatest(tail); err != nil {
		return err
	}

	if err := t.r.OrderedPutInt64(t.trailerOff()+offTail, newTail); err != nil {
		return err
	}

	t.tail = newTail

	return nil
}

// publishTailIntent publishes the intent word with a plain store followed
// by a store fence. Readers observe it via VolatileGetInt64, so it must use
// the same native representation as the region's atomic accessors, not the
// region's configurable ByteOrder (see region.PlainPutInt64Native).
func (t *Transmitter) publishTailIntent(v int64) error {
	off := t.trailerOff() + offTailIntent
	if err := t.r.CheckBounds(off, 8); err != nil {
		return err
	}

	t.r.PlainPutInt64Native(off, v)
	region.StoreFence()

	return nil
}

// publishLatest records the logical position at which the newest record
// begins; a lapped Receiver resynchronizes its cursor to this position.
func (t *Transmitter) publishLatest(v int64) error {
	off := t.trailerOff() + offLatest
	if err := t.r.CheckBounds(off, 8); err != nil {
		return err
	}

	t.r.PlainPutInt64Native(off, v)

	return nil
}

func (t *Transmitter) writeHeader(recOff, recordLen int, typeID int32) error {
	base := t.bodyOff + recOff
	if err := t.r.PutInt32(base+offLength, int32(recordLen)); err != nil {
		return err
	}

	return t.r.PutInt32(base+offTypeID, typeID)
}
