package errorlog

import (
	"sync"

	"github.com/nexusmem/agrona/region"
)

// Log is an append-only store of distinct-error observation records over a
// single region. It is safe for concurrent Record/Read calls from multiple
// goroutines: coalescing onto an existing record is lock-free, and only the
// creation of a brand new record serializes on an internal mutex so two
// writers cannot claim the same unused slot.
type Log struct {
	r  *region.Region
	mu sync.Mutex
}

// NewLog wraps r as an error log occupying its entire capacity.
func NewLog(r *region.Region) (*Log, error) {
	if err := validateRegion(r); err != nil {
		return nil, err
	}

	return &Log{r: r}, nil
}

// scan walks committed records from offset 0, returning the offset of a
// record whose encoded payload matches encoded (or -1 if none matches) and
// the offset of the first unused slot (where the scan stopped because
// length read as zero, or ran off the end of the region).
func (l *Log) scan(encoded string) (matched, unused int, err error) {
	matched = -1
	capacity := l.r.Capacity()
	offset := 0

	for offset+recordHeaderLength <= capacity {
		length, err := l.r.VolatileGetInt32(offset)
		if err != nil {
			return -1, 0, err
		}

		if length == 0 {
			return matched, offset, nil
		}

		if matched == -1 {
			encLen := int(length) - recordHeaderLength
			if encLen >= 0 {
				existing, err := l.r.CopyOut(offset+offEncoded, encLen)
				if err == nil && string(existing) == encoded {
					matched = offset
				}
			}
		}

		offset += alignedLength(int(length))
	}

	return matched, offset, nil
}

// Record appends a new observation of identity, or, if a committed record
// with the same Identity already exists, coalesces onto it by bumping its
// observationCount and lastTimestamp. It returns false if there is no room
// for a brand new record; coalescing onto an existing record never fails
// for lack of space.
func (l *Log) Record(identity Identity, clock EpochClock) (bool, error) {
	encoded := identity.Encode()

	matchedOffset, unusedOffset, err := l.scan(encoded)
	if err != nil {
		return false, err
	}

	if matchedOffset >= 0 {
		return true, l.bumpObservation(matchedOffset, clock)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Re-scan under the lock: a concurrent writer may have appended the same
	// identity (or consumed slots) between the lock-free scan and here.
	matchedOffset, unusedOffset, err = l.scan(encoded)
	if err != nil {
		return false, err
	}

	if matchedOffset >= 0 {
		return true, l.bumpObservation(matchedOffset, clock)
	}

	recordLength := recordHeaderLength + len(encoded)
	if unusedOffset+recordLength > l.r.Capacity() {
		return false, nil
	}

	if err := l.r.CopyIn(unusedOffset+offEncoded, []byte(encoded)); err != nil {
		return false, err
	}

	now := clock.NowMillis()

	l.r.PlainPutInt64Native(unusedOffset+offFirstTimestamp, now)

	if err := l.r.OrderedPutInt32(unusedOffset+offLength, int32(recordLength)); err != nil {
		return false, err
	}

	if _, err := l.r.GetAndAddInt32(unusedOffset+offObservationCount, 1); err != nil {
		return false, err
	}

	if err := l.r.OrderedPutInt64(unusedOffset+offLastTimestamp, now); err != nil {
		return false, err
	}

	return true, nil
}

func (l *Log) bumpObservation(offset int, clock EpochClock) error {
	if _, err := l.r.GetAndAddInt32(offset+offObservationCount, 1); err != nil {
		return err
	}

	return l.r.OrderedPutInt64(offset+offLastTimestamp, clock.NowMillis())
}

// Observation is one aggregated record as delivered by Read.
type Observation struct {
	ObservationCount int32
	FirstTimestamp   int64
	LastTimestamp    int64
	Encoded          string
}

// Read iterates committed records in offset order, invoking fn for every
// record whose lastTimestamp is >= sinceTimestamp.
func (l *Log) Read(sinceTimestamp int64, fn func(Observation)) error {
	capacity := l.r.Capacity()
	offset := 0

	for offset+recordHeaderLength <= capacity {
		length, err := l.r.VolatileGetInt32(offset)
		if err != nil {
			return err
		}

		if length == 0 {
			return nil
		}

		lastTimestamp, err := l.r.VolatileGetInt64(offset + offLastTimestamp)
		if err != nil {
			return err
		}

		if lastTimestamp >= sinceTimestamp {
			observationCount, err := l.r.VolatileGetInt32(offset + offObservationCount)
			if err != nil {
				return err
			}

			firstTimestamp := l.r.PlainGetInt64Native(offset + offFirstTimestamp)

			encLen := int(length) - recordHeaderLength

			encoded, err := l.r.CopyOut(offset+offEncoded, encLen)
			if err != nil {
				return err
			}

			fn(Observation{
				ObservationCount: observationCount,
				FirstTimestamp:   firstTimestamp,
				LastTimestamp:    lastTimestamp,
				Encoded:          string(encoded),
			})
		}

		offset += alignedLength(int(length))
	}

	return nil
}
