//go:build !region_debug

package region

// DebugBuild reports whether the region_debug alignment-checking build tag
// is active. See align.go.
const DebugBuild = false

// CheckAligned is a no-op in non-debug builds; see align.go.
func (r *Region) CheckAligned(offset, n int) error {
	return nil
}
