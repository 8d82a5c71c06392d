package slabcache

const defaultName = "mesh"

// Sizes used by the 3D renderer for its two mesh slabs, in elements.
const (
	ShadedCapacity     = 50_000_000
	SolidColorCapacity = 10_000_000
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
