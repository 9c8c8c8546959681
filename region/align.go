//go:build region_debug

package region

import "fmt"

// Debug-only alignment checking, selected by the region_debug build tag.
// The non-debug build compiles CheckAligned to a no-op (align_stub.go), so
// call sites can stay in place on hot paths without a cost in release builds.

// CheckAligned verifies that offset is aligned to n bytes (n must be a
// power of two). Intended for call sites immediately before a sequence of
// unchecked-fast-path operations.
func (r *Region) CheckAligned(offset, n int) error {
	if offset%n != 0 {
		return fmt.Errorf("region: offset %d is not %d-byte aligned", offset, n)
	}

	return nil
}

// DebugBuild reports whether the region_debug alignment-checking build tag
// is active. Components may use this to decide whether to route through
// CheckAligned on hot paths.
const DebugBuild = true
