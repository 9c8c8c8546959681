package counters

import "errors"

// Error classification for the counters store.
var (
	// ErrInvalidArgument indicates a region too small for even one slot, or
	// a label exceeding maxLabelLength.
	ErrInvalidArgument = errors.New("counters: invalid argument")

	// ErrNoCapacity indicates the next counter id would exceed either
	// region's capacity.
	ErrNoCapacity = errors.New("counters: no capacity for another counter")
)
