// Package ringbuffer implements a many-to-one, variable-length record queue:
// multiple concurrent producers enqueue, a single consumer drains in
// insertion order, built on region.Region.
package ringbuffer

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Record header layout: {int32 lengthWord, int32 typeId}. lengthWord is a
// negative preview during claim, replaced by the positive recordLength on
// commit.
const (
	headerLength = 8

	offLength = 0
	offTypeID = 4
)

// PaddingTypeID marks a record as padding; the consumer skips it silently.
const PaddingTypeID = -1

// Trailer layout, relative to the end of the body.
const (
	offTail              = 0
	offHeadCache         = 1 * region.CacheLineSize
	offHead              = 2 * region.CacheLineSize
	offCorrelationID     = 3 * region.CacheLineSize
	offConsumerHeartbeat = 4 * region.CacheLineSize

	// TrailerLength is the fixed size of the control trailer appended after
	// the power-of-two body.
	TrailerLength = 5 * region.CacheLineSize
)

// MaxMessageLength returns the largest payload a message of the given body
// capacity may carry: capacity/8.
func MaxMessageLength(capacity int) int {
	return capacity / 8
}

func validateCapacity(r *region.Region, capacity int) error {
	if !region.IsPowerOfTwo(capacity) || capacity < 8 {
		return fmt.Errorf("ringbuffer: capacity %d is not a power of two >= 8: %w", capacity, ErrInvalidArgument)
	}

	if r.Capacity() < capacity+TrailerLength {
		return fmt.Errorf("ringbuffer: region capacity %d is smaller than body %d + trailer %d: %w", r.Capacity(), capacity, TrailerLength, ErrInvalidArgument)
	}

	return nil
}

func recordOffset(pos int64, capacity int) int {
	return int(pos & int64(capacity-1))
}

func alignedLength(totalRecordLength int) int {
	return region.Align8(totalRecordLength)
}
