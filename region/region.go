// Package region provides a bounds-checked, alignment-verified abstraction
// over a fixed-capacity byte region, with atomic primitive access suitable
// for lock-free, inter-thread and inter-process communication.
//
// A Region never resizes after construction. Its logical contents — what is
// valid at which offset — are governed entirely by the component built on
// top of it (broadcast, ringbuffer, errorlog, counters); Region itself only
// guarantees that accesses stay in bounds and that the base address was
// 8-byte aligned when the region was constructed.
package region

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// CacheLineSize is the assumed CPU cache line size used to pad trailer and
// slot layouts against false sharing.
const CacheLineSize = 64

// Region is a mutable, bounds-checked view over a fixed byte slice.
//
// All accessor methods are safe for concurrent use by multiple goroutines;
// whether concurrent access to the SAME offset is safe depends on which
// accessor is used (plain vs atomic) and is the caller's responsibility.
//
// The zero value is not usable; construct with New, NewHeap, NewFileBacked or
// NewAnonymousShared.
type Region struct {
	data  []byte
	order binary.ByteOrder
}

// New wraps an existing byte slice as a Region.
//
// order controls the byte order used by the Get*/Put* primitive accessors
// (it has no effect on the atomic accessors in atomic.go, which always use
// the platform's native in-memory representation). A nil order defaults to
// binary.NativeEndian.
//
// Returns ErrInvalidArgument if data is empty, or ErrUnaligned if the base
// address of data is not 8-byte aligned.
func New(data []byte, order binary.ByteOrder) (*Region, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("region: capacity must be >= 1: %w", ErrInvalidArgument)
	}

	if order == nil {
		order = binary.NativeEndian
	}

	if uintptr(unsafe.Pointer(&data[0]))%8 != 0 {
		return nil, ErrUnaligned
	}

	return &Region{data: data, order: order}, nil
}

// NewHeap allocates a new heap-backed Region of the given capacity.
//
// Heap regions are visible only within the current process; use
// NewFileBacked or NewAnonymousShared for inter-process visibility.
func NewHeap(capacity int, order binary.ByteOrder) (*Region, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("region: capacity must be >= 1: %w", ErrInvalidArgument)
	}

	return New(make([]byte, capacity), order)
}

// Capacity returns the fixed size of the region in bytes.
func (r *Region) Capacity() int {
	return len(r.data)
}

// Bytes exposes the raw backing slice.
//
// Intended for interop with lower-level primitives (mmap teardown,
// checksum computation over a sub-range); ordinary callers should prefer
// the bounds-checked accessors below.
func (r *Region) Bytes() []byte {
	return r.data
}

// ByteOrder returns the byte order configured for this region's primitive
// accessors.
func (r *Region) ByteOrder() binary.ByteOrder {
	return r.order
}

// checkBounds verifies that [offset, offset+length) lies within the region.
func (r *Region) checkBounds(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(r.data) || offset+length < offset {
		return fmt.Errorf("region: access [%d, %d) exceeds capacity %d: %w", offset, offset+length, len(r.data), ErrOutOfBounds)
	}

	return nil
}

// CheckBounds is the exported form of checkBounds, for components (broadcast,
// ringbuffer, errorlog, counters) that need to validate an offset before
// using one of the unchecked Plain*Native accessors in native.go.
func (r *Region) CheckBounds(offset, length int) error {
	return r.checkBounds(offset, length)
}

// --- aligned/bounds-checked primitive accessors ---

// GetByte reads a single byte at offset.
func (r *Region) GetByte(offset int) (byte, error) {
	if err := r.checkBounds(offset, 1); err != nil {
		return 0, err
	}

	return r.data[offset], nil
}

// PutByte writes a single byte at offset.
func (r *Region) PutByte(offset int, v byte) error {
	if err := r.checkBounds(offset, 1); err != nil {
		return err
	}

	r.data[offset] = v

	return nil
}

// GetInt16 reads a 16-bit signed integer at offset using the region's byte order.
func (r *Region) GetInt16(offset int) (int16, error) {
	if err := r.checkBounds(offset, 2); err != nil {
		return 0, err
	}

	return int16(r.order.Uint16(r.data[offset:])), nil
}

// PutInt16 writes a 16-bit signed integer at offset using the region's byte order.
func (r *Region) PutInt16(offset int, v int16) error {
	if err := r.checkBounds(offset, 2); err != nil {
		return err
	}

	r.order.PutUint16(r.data[offset:], uint16(v))

	return nil
}

// GetUint16 reads a 16-bit unsigned integer at offset.
func (r *Region) GetUint16(offset int) (uint16, error) {
	if err := r.checkBounds(offset, 2); err != nil {
		return 0, err
	}

	return r.order.Uint16(r.data[offset:]), nil
}

// PutUint16 writes a 16-bit unsigned integer at offset.
func (r *Region) PutUint16(offset int, v uint16) error {
	if err := r.checkBounds(offset, 2); err != nil {
		return err
	}

	r.order.PutUint16(r.data[offset:], v)

	return nil
}

// GetInt32 reads a 32-bit signed integer at offset using the region's byte order.
func (r *Region) GetInt32(offset int) (int32, error) {
	if err := r.checkBounds(offset, 4); err != nil {
		return 0, err
	}

	return int32(r.order.Uint32(r.data[offset:])), nil
}

// PutInt32 writes a 32-bit signed integer at offset using the region's byte order.
func (r *Region) PutInt32(offset int, v int32) error {
	if err := r.checkBounds(offset, 4); err != nil {
		return err
	}

	r.order.PutUint32(r.data[offset:], uint32(v))

	return nil
}

// GetUint32 reads a 32-bit unsigned integer at offset.
func (r *Region) GetUint32(offset int) (uint32, error) {
	if err := r.checkBounds(offset, 4); err != nil {
		return 0, err
	}

	return r.order.Uint32(r.data[offset:]), nil
}

// PutUint32 writes a 32-bit unsigned integer at offset.
func (r *Region) PutUint32(offset int, v uint32) error {
	if err := r.checkBounds(offset, 4); err != nil {
		return err
	}

	r.order.PutUint32(r.data[offset:], v)

	return nil
}

// GetInt64 reads a 64-bit signed integer at offset.
func (r *Region) GetInt64(offset int) (int64, error) {
	if err := r.checkBounds(offset, 8); err != nil {
		return 0, err
	}

	return int64(r.order.Uint64(r.data[offset:])), nil
}

// PutInt64 writes a 64-bit signed integer at offset.
func (r *Region) PutInt64(offset int, v int64) error {
	if err := r.checkBounds(offset, 8); err != nil {
		return err
	}

	r.order.PutUint64(r.data[offset:], uint64(v))

	return nil
}

// GetUint64 reads a 64-bit unsigned integer at offset.
func (r *Region) GetUint64(offset int) (uint64, error) {
	if err := r.checkBounds(offset, 8); err != nil {
		return 0, err
	}

	return r.order.Uint64(r.data[offset:]), nil
}

// PutUint64 writes a 64-bit unsigned integer at offset.
func (r *Region) PutUint64(offset int, v uint64) error {
	if err := r.checkBounds(offset, 8); err != nil {
		return err
	}

	r.order.PutUint64(r.data[offset:], v)

	return nil
}

// CopyIn bulk-copies src into the region starting at offset.
func (r *Region) CopyIn(offset int, src []byte) error {
	if err := r.checkBounds(offset, len(src)); err != nil {
		return err
	}

	copy(r.data[offset:offset+len(src)], src)

	return nil
}

// CopyOut returns a fresh copy of length bytes starting at offset.
//
// The returned slice does not alias the region's backing array; mutating it
// has no effect on the region.
func (r *Region) CopyOut(offset, length int) ([]byte, error) {
	if err := r.checkBounds(offset, length); err != nil {
		return nil, err
	}

	out := make([]byte, length)
	copy(out, r.data[offset:offset+length])

	return out, nil
}

// Slice returns the live (aliasing) sub-slice [offset, offset+length).
//
// Unlike CopyOut this does not allocate; callers that retain the result
// beyond the current operation must not assume its contents are stable,
// since a concurrent writer may overwrite it.
func (r *Region) Slice(offset, length int) ([]byte, error) {
	if err := r.checkBounds(offset, length); err != nil {
		return nil, err
	}

	return r.data[offset : offset+length], nil
}

// SetMemory fills length bytes starting at offset with value.
func (r *Region) SetMemory(offset, length int, value byte) error {
	if err := r.checkBounds(offset, length); err != nil {
		return err
	}

	sub := r.data[offset : offset+length]
	for i := range sub {
		sub[i] = value
	}

	return nil
}

// Align8 rounds x up to the next multiple of 8.
func Align8(x int) int {
	return (x + 7) &^ 7
}

// Align rounds x up to the next multiple of n, where n must be a power of two.
func Align(x, n int) int {
	return (x + n - 1) &^ (n - 1)
}

// IsPowerOfTwo reports whether x is a positive power of two.
func IsPowerOfTwo(x int) bool {
	return x > 0 && x&(x-1) == 0
}
