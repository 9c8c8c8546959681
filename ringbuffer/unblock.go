package ringbuffer

import "github.com/nexusmem/agrona/region"

// Unblock recovers from a producer that CAS-advanced tail but died (or
// stalled) before committing its header. It returns false if head == tail
// (nothing to unblock) or if a concurrent producer commits before the
// recovery can complete.
func (c *Consumer) Unblock() (bool, error) {
	head, err := c.r.VolatileGetInt64(c.trailerOff() + offHead)
	if err != nil {
		return false, err
	}

	tail, err := c.r.VolatileGetInt64(c.trailerOff() + offTail)
	if err != nil {
		return false, err
	}

	if head == tail {
		return false, nil
	}

	headOff := c.bodyOff + recordOffset(head, c.capacity)

	word1, err := c.r.VolatileGetInt64(headOff)
	if err != nil {
		return false, err
	}

	length1, _ := unpackHeader(word1)

	switch {
	case length1 < 0:
		return c.unblockClaimed(headOff, word1, length1)
	case length1 > 0:
		// The head slot is already committed; there is nothing to unblock.
		return false, nil
	default:
		return c.unblockScan(headOff, word1, head, tail)
	}
}

// unblockClaimed handles a head slot whose header shows a negative (claimed
// but not yet committed) length. Re-checking before acting avoids racing
// with a producer that is mid-commit.
func (c *Consumer) unblockClaimed(headOff int, word1 int64, length1 int32) (bool, error) {
	word2, err := c.r.VolatileGetInt64(headOff)
	if err != nil {
		return false, err
	}

	length2, _ := unpackHeader(word2)
	if length2 >= 0 {
		return false, nil
	}

	swapped, err := c.r.CompareAndSetInt64(headOff, word1, packHeader(-length1, PaddingTypeID))
	if err != nil {
		return false, err
	}

	return swapped, nil
}

// unblockScan handles a head slot whose header is still zero: no producer
// has reached it yet even though tail has already advanced past it. It
// walks cache-line-aligned positions toward tail looking for the first
// committed slot and pads the gap up to it.
func (c *Consumer) unblockScan(headOff int, word1 int64, head, tail int64) (bool, error) {
	step := int64(region.CacheLineSize)

	for pos := head + step; pos < tail; pos += step {
		off := c.bodyOff + recordOffset(pos, c.capacity)

		w1, err := c.r.VolatileGetInt64(off)
		if err != nil {
			return false, err
		}

		l1, _ := unpackHeader(w1)
		if l1 <= 0 {
			continue
		}

		// Re-read before trusting a positive length: if it changed since
		// w1, a producer is actively committing here concurrently with our
		// scan, and we abandon rather than act on a stale observation.
		w2, err := c.r.VolatileGetInt64(off)
		if err != nil {
			return false, err
		}

		l2, _ := unpackHeader(w2)
		if l2 != l1 {
			return false, nil
		}

		gap := int32(pos - head)

		return c.casHeaderToPadding(headOff, word1, gap)
	}

	gap := int32(tail - head)

	return c.casHeaderToPadding(headOff, word1, gap)
}

func (c *Consumer) casHeaderToPadding(headOff int, expected int64, gap int32) (bool, error) {
	swapped, err := c.r.CompareAndSetInt64(headOff, expected, packHeader(gap, PaddingTypeID))
	if err != nil {
		return false, err
	}

	return swapped, nil
}
