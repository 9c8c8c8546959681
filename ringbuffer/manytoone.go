package ringbuffer

import (
	"errors"
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Record headers pack {int32 length, int32 typeId} into one 8-byte word so
// that Consumer.Unblock can recover a stalled producer with a single 64-bit
// compare-and-set across both fields. Every header
// read or write — claim, commit, padding, unblock — goes through pack/unpack
// and the region's Int64 atomic accessors, so no accessor ever observes a
// half-written header.
func packHeader(length, typeID int32) int64 {
	return int64(uint32(length)) | int64(uint32(typeID))<<32
}

func unpackHeader(word int64) (length, typeID int32) {
	return int32(uint32(word)), int32(uint32(word >> 32))
}

// ManyToOneRingBuffer is the producer side of a many-to-one ring buffer.
// Any number of goroutines (or processes, over a shared region) may hold and
// use the same *ManyToOneRingBuffer concurrently — unlike Transmitter, it is
// not single-writer, so there is no registry guard here.
type ManyToOneRingBuffer struct {
	r        *region.Region
	capacity int
	bodyOff  int
}

// NewManyToOneRingBuffer attaches a producer to a capacity-byte power-of-two
// ring buffer body plus trailer, starting at byte 0 of r.
func NewManyToOneRingBuffer(r *region.Region, capacity int) (*ManyToOneRingBuffer, error) {
	if err := validateCapacity(r, capacity); err != nil {
		return nil, err
	}

	return &ManyToOneRingBuffer{r: r, capacity: capacity, bodyOff: 0}, nil
}

func (b *ManyToOneRingBuffer) trailerOff() int {
	return b.bodyOff + b.capacity
}

func (b *ManyToOneRingBuffer) writeHeader(recordOff int, length, typeID int32) error {
	return b.r.OrderedPutInt64(b.bodyOff+recordOff, packHeader(length, typeID))
}

// errAbortedClaim marks a Claim that has already been committed; Commit on
// such a claim is a programming error.
var errAbortedClaim = errors.New("ringbuffer: claim already committed")

// Claim is a reserved, not-yet-visible record returned by TryClaim. The
// caller writes payload bytes directly into Payload() (zero-copy) and then
// calls Commit to publish them.
type Claim struct {
	buffer    *ManyToOneRingBuffer
	recordOff int
	msgLength int // recordLength - headerLength
	typeID    int32
	committed bool
}

// Payload returns the writable region the caller fills before Commit. It
// aliases the ring buffer's backing memory and must not be retained past
// Commit.
func (c *Claim) Payload() ([]byte, error) {
	return c.buffer.r.Slice(c.buffer.bodyOff+c.recordOff+headerLength, c.msgLength)
}

// Commit publishes the claimed record, making it visible to the consumer.
func (c *Claim) Commit() error {
	if c.committed {
		return errAbortedClaim
	}

	c.committed = true

	return c.buffer.writeHeader(c.recordOff, int32(headerLength+c.msgLength), c.typeID)
}

// TryClaim reserves space for one record of payloadLength bytes tagged
// typeID, inserting a padding prefix when the record would otherwise span
// the wrap point. It returns (nil, false, nil) if there is currently no
// space.
func (b *ManyToOneRingBuffer) TryClaim(typeID int32, payloadLength int) (*Claim, bool, error) {
	if typeID < 1 {
		return nil, false, fmt.Errorf("ringbuffer: typeId %d is < 1: %w", typeID, ErrInvalidArgument)
	}

	maxLen := MaxMessageLength(b.capacity)
	if payloadLength > maxLen {
		return nil, false, fmt.Errorf("ringbuffer: payload length %d exceeds max %d: %w", payloadLength, maxLen, ErrInvalidArgument)
	}

	recordLength := headerLength + payloadLength
	required := alignedLength(recordLength)

	for {
		headCache, err := b.r.VolatileGetInt64(b.trailerOff() + offHeadCache)
		if err != nil {
			return nil, false, err
		}

		tail, err := b.r.VolatileGetInt64(b.trailerOff() + offTail)
		if err != nil {
			return nil, false, err
		}

		if tail-headCache+int64(required) > int64(b.capacity) {
			head, err := b.r.VolatileGetInt64(b.trailerOff() + offHead)
			if err != nil {
				return nil, false, err
			}

			if tail-head+int64(required) > int64(b.capacity) {
				return nil, false, nil
			}

			if err := b.r.OrderedPutInt64(b.trailerOff()+offHeadCache, head); err != nil {
				return nil, false, err
			}
		}

		recordOff := recordOffset(tail, b.capacity)
		spaceNeeded := required
		padLen := 0

		if b.capacity-recordOff < required {
			padLen = b.capacity - recordOff
			spaceNeeded = required + padLen

			head, err := b.r.VolatileGetInt64(b.trailerOff() + offHead)
			if err != nil {
				return nil, false, err
			}

			if tail-head+int64(spaceNeeded) > int64(b.capacity) {
				return nil, false, nil
			}
		}

		newTail := tail + int64(spaceNeeded)

		swapped, err := b.r.CompareAndSetInt64(b.trailerOff()+offTail, tail, newTail)
		if err != nil {
			return nil, false, err
		}

		if !swapped {
			continue
		}

		if padLen > 0 {
			if err := b.writeHeader(recordOff, int32(padLen), PaddingTypeID); err != nil {
				return nil, false, err
			}

			recordOff = 0
		}

		if err := b.writeHeader(recordOff, int32(-recordLength), typeID); err != nil {
			return nil, false, err
		}

		return &Claim{buffer: b, recordOff: recordOff, msgLength: payloadLength, typeID: typeID}, true, nil
	}
}

// Write is TryClaim+Commit for callers that already have the full payload in
// hand and don't need the zero-copy Claim API.
func (b *ManyToOneRingBuffer) Write(typeID int32, payload []byte) (bool, error) {
	claim, ok, err := b.TryClaim(typeID, len(payload))
	if err != nil || !ok {
		return ok, err
	}

	if len(payload) > 0 {
		dst, err := claim.Payload()
		if err != nil {
			return false, err
		}

		copy(dst, payload)
	}

	return true, claim.Commit()
}

// NextCorrelationID reserves a unique, monotonically increasing id from the
// trailer's correlation counter. Safe for concurrent use by any number of
// producers; ids are unique across all of them.
func (b *ManyToOneRingBuffer) NextCorrelationID() (int64, error) {
	return b.r.GetAndAddInt64(b.trailerOff()+offCorrelationID, 1)
}

// ConsumerHeartbeat returns the liveness timestamp most recently stored by
// the consumer, or zero if the consumer has never stored one.
func (b *ManyToOneRingBuffer) ConsumerHeartbeat() (int64, error) {
	return b.r.VolatileGetInt64(b.trailerOff() + offConsumerHeartbeat)
}

// Handler is invoked once per committed record drained by Consumer.Read.
// Payload aliases the region and is only valid for the duration of the call.
type Handler func(typeID int32, payload []byte) error

// Consumer is the single drainer of a ring buffer's committed records.
type Consumer struct {
	r        *region.Region
	capacity int
	bodyOff  int
}

// NewConsumer attaches the (sole) consumer to the same region and capacity a
// ManyToOneRingBuffer producer was constructed with.
func NewConsumer(r *region.Region, capacity int) (*Consumer, error) {
	if err := validateCapacity(r, capacity); err != nil {
		return nil, err
	}

	return &Consumer{r: r, capacity: capacity, bodyOff: 0}, nil
}

func (c *Consumer) trailerOff() int {
	return c.bodyOff + c.capacity
}

// Read drains committed records in insertion order, invoking handler for
// each non-padding record, up to limit messages (0 means unlimited). It
// returns the number of messages delivered to handler.
//
// If handler returns an error, Read stops, still zero-fills and advances
// head up through the failing message's end, and returns that error
// alongside the count of messages successfully delivered before it.
func (c *Consumer) Read(handler Handler, limit int) (int, error) {
	head, err := c.r.VolatileGetInt64(c.trailerOff() + offHead)
	if err != nil {
		return 0, err
	}

	var (
		bytesRead    int64
		messagesRead int
		handlerErr   error
	)

loop:
	for limit <= 0 || messagesRead < limit {
		off := recordOffset(head+bytesRead, c.capacity)

		word, err := c.r.VolatileGetInt64(c.bodyOff + off)
		if err != nil {
			return messagesRead, err
		}

		length, typeID := unpackHeader(word)
		if length <= 0 {
			break
		}

		aligned := int64(alignedLength(int(length)))

		if typeID != PaddingTypeID {
			payload, err := c.r.Slice(c.bodyOff+off+headerLength, int(length)-headerLength)
			if err != nil {
				return messagesRead, err
			}

			if err := handler(typeID, payload); err != nil {
				bytesRead += aligned
				handlerErr = err

				break loop
			}

			messagesRead++
		}

		bytesRead += aligned
	}

	if bytesRead == 0 {
		return messagesRead, handlerErr
	}

	if err := c.zeroFill(head, bytesRead); err != nil {
		return messagesRead, err
	}

	if err := c.r.OrderedPutInt64(c.trailerOff()+offHead, head+bytesRead); err != nil {
		return messagesRead, err
	}

	return messagesRead, handlerErr
}

func (c *Consumer) zeroFill(head, length int64) error {
	off := recordOffset(head, c.capacity)
	remaining := int(length)

	for remaining > 0 {
		n := c.capacity - off
		if n > remaining {
			n = remaining
		}

		if err := c.r.SetMemory(c.bodyOff+off, n, 0); err != nil {
			return err
		}

		remaining -= n
		off = 0
	}

	return nil
}

// SetHeartbeat stores a liveness timestamp into the trailer's consumer
// heartbeat slot, where producers (or an external watchdog) can observe it
// via ConsumerHeartbeat.
func (c *Consumer) SetHeartbeat(timeMillis int64) error {
	return c.r.OrderedPutInt64(c.trailerOff()+offConsumerHeartbeat, timeMillis)
}

// Size reports the number of unconsumed bytes, re-reading head and tail and
// clamping at capacity to absorb the transient overshoot the CAS-then-write
// claim sequence can produce.
func (c *Consumer) Size() (int, error) {
	tail, err := c.r.VolatileGetInt64(c.trailerOff() + offTail)
	if err != nil {
		return 0, err
	}

	head, err := c.r.VolatileGetInt64(c.trailerOff() + offHead)
	if err != nil {
		return 0, err
	}

	size := tail - head
	if size > int64(c.capacity) {
		size = int64(c.capacity)
	}

	if size < 0 {
		size = 0
	}

	return int(size), nil
}
