package counters

import "github.com/nexusmem/agrona/region"

// Reader iterates and inspects counters. Any number of Readers may share the
// same regions concurrently with each other and with a Store.
type Reader struct {
	values   *region.Region
	metadata *region.Region
}

// NewReader pairs a values region with a metadata region previously (or
// concurrently) populated by a Store.
func NewReader(values, metadata *region.Region) (*Reader, error) {
	if err := validateRegions(values, metadata); err != nil {
		return nil, err
	}

	return &Reader{values: values, metadata: metadata}, nil
}

// Counter returns a handle for reading and mutating the value of counter id.
// It does not check id's allocation state; callers that need that should
// consult Iterate or read the metadata directly.
func (r *Reader) Counter(id int32) *Counter {
	return &Counter{values: r.values, id: id}
}

// CounterInfo describes one allocated counter, as surfaced by Iterate.
type CounterInfo struct {
	ID     int32
	TypeID int32
	Label  string
}

// Iterate invokes fn once for every currently allocated counter in the
// metadata region, in id order: reclaimed slots are skipped, and the first
// unused slot terminates the walk (ids are handed out densely, so nothing
// allocated can follow it). fn may return false to stop iteration early.
func (r *Reader) Iterate(fn func(CounterInfo) bool) error {
	slots := r.metadata.Capacity() / metaSlotSize

	for id := int32(0); int(id) < slots; id++ {
		metaOff := metadataOffset(id)

		state, err := r.metadata.VolatileGetInt32(metaOff + offState)
		if err != nil {
			return err
		}

		if state == stateUnused {
			return nil
		}

		if state != stateAllocated {
			continue
		}

		typeID, err := r.metadata.GetInt32(metaOff + offTypeID)
		if err != nil {
			return err
		}

		label, err := r.metadata.GetStringUTF8(metaOff + offLabelLength)
		if err != nil {
			return err
		}

		if !fn(CounterInfo{ID: id, TypeID: typeID, Label: label}) {
			return nil
		}
	}

	return nil
}

// Counter is a lightweight handle over one counter's value slot, offering
// the full set of value operations.
type Counter struct {
	values *region.Region
	id     int32
}

func (c *Counter) offset() int {
	return valuesOffset(c.id)
}

// Get performs an acquire-load of the counter's value.
func (c *Counter) Get() (int64, error) {
	return c.values.VolatileGetInt64(c.offset())
}

// GetWeak reads the value with no ordering guarantee beyond Go's plain
// memory model for the word itself.
func (c *Counter) GetWeak() int64 {
	return c.values.PlainGetInt64Native(c.offset())
}

// Set performs a sequentially consistent store of v.
func (c *Counter) Set(v int64) error {
	return c.values.VolatilePutInt64(c.offset(), v)
}

// SetOrdered performs a release-store of v.
func (c *Counter) SetOrdered(v int64) error {
	return c.values.OrderedPutInt64(c.offset(), v)
}

// SetWeak stores v with no ordering guarantee.
func (c *Counter) SetWeak(v int64) {
	c.values.PlainPutInt64Native(c.offset(), v)
}

// Increment atomically adds 1 and returns the new value.
func (c *Counter) Increment() (int64, error) {
	return c.Add(1)
}

// IncrementOrdered raises the counter by 1 with a plain read followed by a
// release store of the sum. Weaker than Increment: it is not atomic against
// other writers of the same counter, only ordered for readers.
func (c *Counter) IncrementOrdered() (int64, error) {
	return c.AddOrdered(1)
}

// Add atomically adds delta and returns the new value.
func (c *Counter) Add(delta int64) (int64, error) {
	prev, err := c.values.GetAndAddInt64(c.offset(), delta)
	if err != nil {
		return 0, err
	}

	return prev + delta, nil
}

// AddOrdered adds delta with a plain read followed by a release store of the
// sum. Weaker than Add: a concurrent writer's update between the read and
// the store may be lost; single-writer counters get the cheaper store with
// the same reader-visible ordering.
func (c *Counter) AddOrdered(delta int64) (int64, error) {
	off := c.offset()
	if err := c.values.CheckBounds(off, 8); err != nil {
		return 0, err
	}

	v := c.values.PlainGetInt64Native(off) + delta
	if err := c.values.OrderedPutInt64(off, v); err != nil {
		return 0, err
	}

	return v, nil
}

// ProposeMax atomically raises the counter to value if value is greater
// than its current contents, returning whether it was raised.
func (c *Counter) ProposeMax(value int64) (bool, error) {
	for {
		current, err := c.values.VolatileGetInt64(c.offset())
		if err != nil {
			return false, err
		}

		if value <= current {
			return false, nil
		}

		swapped, err := c.values.CompareAndSetInt64(c.offset(), current, value)
		if err != nil {
			return false, err
		}

		if swapped {
			return true, nil
		}
	}
}

// ProposeMaxOrdered is ProposeMax's release-ordered counterpart.
func (c *Counter) ProposeMaxOrdered(value int64) (bool, error) {
	return c.ProposeMax(value)
}
