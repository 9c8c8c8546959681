// Package errorlog implements an append-only log that coalesces repeated
// observations of the same error into a single aggregated record, built on
// region.Region.
package errorlog

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Record layout: {int32 length, int32 observationCount, int64
// firstTimestamp, int64 lastTimestamp, bytes encoded}. length == 0
// terminates iteration.
const (
	recordHeaderLength = 24

	offLength           = 0
	offObservationCount = 4
	offFirstTimestamp   = 8
	offLastTimestamp    = 16
	offEncoded          = 24
)

// recordAlignment is the fixed boundary records are padded to: one cache
// line.
const recordAlignment = region.CacheLineSize

func alignedLength(length int) int {
	return region.Align(length, recordAlignment)
}

func validateRegion(r *region.Region) error {
	if r.Capacity() < recordAlignment {
		return fmt.Errorf("errorlog: region capacity %d is smaller than one record alignment boundary %d: %w", r.Capacity(), recordAlignment, ErrInvalidArgument)
	}

	return nil
}
