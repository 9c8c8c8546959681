// Package broadcast implements a single-writer, many-reader broadcast
// buffer: best-effort fan-out with overwrite semantics and explicit loss
// detection, built on region.Region.
package broadcast

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Record header layout: {int32 length; int32 typeId}.
const (
	headerLength = 8

	offLength = 0
	offTypeID = 4
)

// PaddingTypeID marks a record as padding; it is consumed silently by
// readers and never surfaced to a caller.
const PaddingTypeID = -1

// Trailer layout, relative to the end of the body.
const (
	offTailIntent = 0
	offTail       = 8
	offLatest     = 16

	// TrailerLength is the fixed size of the control trailer appended after
	// the power-of-two body.
	TrailerLength = 2 * region.CacheLineSize
)

// MaxMessageLength returns the largest payload a message of the given body
// capacity may carry: capacity/8.
func MaxMessageLength(capacity int) int {
	return capacity / 8
}

// validateCapacity checks that capacity is a positive power of two and that
// the region backing it is large enough to also hold the trailer.
func validateCapacity(r *region.Region, capacity int) error {
	if !region.IsPowerOfTwo(capacity) || capacity < 8 {
		return fmt.Errorf("broadcast: capacity %d is not a power of two >= 8: %w", capacity, ErrInvalidArgument)
	}

	if r.Capacity() < capacity+TrailerLength {
		return fmt.Errorf("broadcast: region capacity %d is smaller than body %d + trailer %d: %w", r.Capacity(), capacity, TrailerLength, ErrInvalidArgument)
	}

	return nil
}

func recordOffset(tail int64, capacity int) int {
	return int(tail % int64(capacity))
}

// alignedLength rounds a total record length (header + payload) up to the
// next 8-byte boundary.
func alignedLength(totalRecordLength int) int {
	return region.Align8(totalRecordLength)
}
