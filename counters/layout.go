// Package counters implements a managed store of named 64-bit counters with
// free-list reuse, split across a values region and a metadata region, built
// on region.Region.
package counters

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Values region: one cache-line-pair slot per counter id, holding a single
// atomically-accessed int64 value, padded to avoid false sharing between
// adjacent counters.
const valuesSlotSize = 2 * region.CacheLineSize

// Metadata region: one four-cache-line slot per counter id.
//
//	{int32 state, int32 typeId, bytes(2 cache lines) keyArea,
//	 int32 labelLength, bytes(<=2 cache lines - 4B) labelUtf8}
const (
	metaSlotSize = 4 * region.CacheLineSize

	offState   = 0
	offTypeID  = 4
	offKeyArea = 8
	keyAreaLen = 2 * region.CacheLineSize

	offLabelLength = offKeyArea + keyAreaLen
	offLabelUTF8   = offLabelLength + 4

	maxLabelLength = metaSlotSize - offLabelUTF8
)

// Counter state values.
const (
	stateUnused    = int32(0)
	stateAllocated = int32(1)
	stateReclaimed = int32(-1)
)

func valuesOffset(id int32) int {
	return int(id) * valuesSlotSize
}

func metadataOffset(id int32) int {
	return int(id) * metaSlotSize
}

func validateRegions(values, metadata *region.Region) error {
	if values.Capacity() < valuesSlotSize {
		return fmt.Errorf("counters: values region capacity %d holds no slots of size %d: %w", values.Capacity(), valuesSlotSize, ErrInvalidArgument)
	}

	if metadata.Capacity() < metaSlotSize {
		return fmt.Errorf("counters: metadata region capacity %d holds no slots of size %d: %w", metadata.Capacity(), metaSlotSize, ErrInvalidArgument)
	}

	return nil
}
