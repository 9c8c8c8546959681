package region

// Plain (non-atomic, non-byte-order-converting) native-word access, used by
// protocols (broadcast's tailIntent/latest, see broadcast/transmitter.go)
// that call for a plain store of a control word also read elsewhere via the
// atomic accessors in atomic.go. Those atomic accessors
// always operate on the machine's native in-memory representation (they
// cast directly to *int64/*int32), so a "plain" write to the same control
// word must use the same native representation rather than the region's
// configurable ByteOrder — otherwise a volatile reader would misinterpret
// a plain writer's store whenever the region was constructed with a
// non-native byte order.
//
// These accessors carry no particular ordering guarantee beyond what Go's
// memory model gives ordinary memory operations; callers needing
// acquire/release semantics use the atomic.go accessors instead.

// PlainGetInt64Native reads a 64-bit word at offset using the machine's
// native representation, without bounds checking or atomicity.
func (r *Region) PlainGetInt64Native(offset int) int64 {
	return *ptr64(r.data, offset)
}

// PlainPutInt64Native writes a 64-bit word at offset using the machine's
// native representation, without bounds checking or atomicity.
func (r *Region) PlainPutInt64Native(offset int, v int64) {
	*ptr64(r.data, offset) = v
}

// PlainGetInt32Native reads a 32-bit word at offset using the machine's
// native representation, without bounds checking or atomicity.
func (r *Region) PlainGetInt32Native(offset int) int32 {
	return *ptr32(r.data, offset)
}

// PlainPutInt32Native writes a 32-bit word at offset using the machine's
// native representation, without bounds checking or atomicity.
func (r *Region) PlainPutInt32Native(offset int, v int32) {
	*ptr32(r.data, offset) = v
}
