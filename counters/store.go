package counters

import (
	"fmt"

	"github.com/nexusmem/agrona/region"
)

// Store is the single allocator/writer of a counters pair. Allocation and
// free are single-threaded: callers serialize their own Allocate/Free
// calls; Store applies no internal locking.
type Store struct {
	values   *region.Region
	metadata *region.Region

	highWaterMark int32 // -1 until the first allocation
	freeList      []int32
}

// NewStore pairs a values region with a metadata region. Both must already
// be sized to hold at least one slot; they grow no further than their
// current capacity.
func NewStore(values, metadata *region.Region) (*Store, error) {
	if err := validateRegions(values, metadata); err != nil {
		return nil, err
	}

	return &Store{values: values, metadata: metadata, highWaterMark: -1}, nil
}

// KeyWriter fills the fixed-size key area of a newly allocated counter with
// an application-defined binary key.
type KeyWriter func(key []byte) error

// Allocate reserves a counter id, writes its type, key and label, and
// publishes it for readers with an ordered store of the allocated state.
func (s *Store) Allocate(label string, typeID int32, keyWriter KeyWriter) (int32, error) {
	if len(label) > maxLabelLength {
		return -1, fmt.Errorf("counters: label length %d exceeds max %d: %w", len(label), maxLabelLength, ErrInvalidArgument)
	}

	id, reused, err := s.nextID()
	if err != nil {
		return -1, err
	}

	if err := s.checkCapacity(id); err != nil {
		if reused {
			s.freeList = append(s.freeList, id)
		} else {
			s.highWaterMark--
		}

		return -1, err
	}

	if reused {
		if err := s.values.OrderedPutInt64(valuesOffset(id), 0); err != nil {
			return -1, err
		}
	}

	metaOff := metadataOffset(id)

	if err := s.metadata.PutInt32(metaOff+offTypeID, typeID); err != nil {
		return -1, err
	}

	if keyWriter != nil {
		key, err := s.metadata.Slice(metaOff+offKeyArea, keyAreaLen)
		if err != nil {
			return -1, err
		}

		if err := keyWriter(key); err != nil {
			return -1, err
		}
	}

	if _, err := s.metadata.PutStringUTF8(metaOff+offLabelLength, label); err != nil {
		return -1, err
	}

	if err := s.metadata.OrderedPutInt32(metaOff+offState, stateAllocated); err != nil {
		return -1, err
	}

	return id, nil
}

// nextID pops the earliest-freed id if one is available, otherwise mints a
// new one past the high-water mark.
func (s *Store) nextID() (id int32, reused bool, err error) {
	if len(s.freeList) > 0 {
		id = s.freeList[0]
		s.freeList = s.freeList[1:]

		return id, true, nil
	}

	s.highWaterMark++

	return s.highWaterMark, false, nil
}

func (s *Store) checkCapacity(id int32) error {
	if valuesOffset(id)+valuesSlotSize > s.values.Capacity() {
		return fmt.Errorf("counters: id %d exceeds values capacity: %w", id, ErrNoCapacity)
	}

	if metadataOffset(id)+metaSlotSize > s.metadata.Capacity() {
		return fmt.Errorf("counters: id %d exceeds metadata capacity: %w", id, ErrNoCapacity)
	}

	return nil
}

// Free marks id reclaimed and returns it to the free list for reuse. The
// value slot remains readable until a later Allocate reuses it and zeroes
// it.
func (s *Store) Free(id int32) error {
	if err := s.metadata.OrderedPutInt32(metadataOffset(id)+offState, stateReclaimed); err != nil {
		return err
	}

	s.freeList = append(s.freeList, id)

	return nil
}
