// Package extent defines the half-open element range shared by the slab
// bookkeeping structures.
package extent

import "fmt"

// Range is the half-open interval [Start, End) over element indices (not bytes).
type Range struct {
	Start int
	End   int
}

// Len returns the number of elements covered by r.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether r covers no elements.
func (r Range) Empty() bool { return r.End <= r.Start }

// Adjacent reports whether r and o touch without overlapping.
func (r Range) Adjacent(o Range) bool { return r.End == o.Start || o.End == r.Start }

// Overlaps reports whether r and o share at least one element.
func (r Range) Overlaps(o Range) bool { return r.Start < o.End && o.Start < r.End }

// Contains reports whether element i lies in r.
func (r Range) Contains(i int) bool { return r.Start <= i && i < r.End }

// Bytes converts r to a byte interval for the given stride.
func (r Range) Bytes(stride int) (off, n int64) {
	return int64(r.Start) * int64(stride), int64(r.Len()) * int64(stride)
}

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Less orders ranges by Start.
func Less(a, b Range) bool { return a.Start < b.Start }

// Violation describes a broken structural invariant. It is raised with panic,
// never returned: once the free and allocated sets disagree no further
// operation on the slab is safe.
type Violation struct {
	Op     string
	Range  Range
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("slabcache: invariant violation in %s %v: %s", v.Op, v.Range, v.Detail)
}

// Violate panics with a *Violation.
func Violate(op string, r Range, format string, args ...any) {
	panic(&Violation{Op: op, Range: r, Detail: fmt.Sprintf(format, args...)})
}
