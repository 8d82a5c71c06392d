// Package freelist tracks unused element ranges of a slab.
//
// Members are kept in a B-tree ordered by Start. No two members are ever
// adjacent or overlapping: Release merges neighbours on insertion.
package freelist

import (
	"github.com/google/btree"

	"github.com/unkn0wn-root/slabcache/internal/extent"
)

const degree = 16

// List is the free set. The zero value is not usable; construct with New.
type List struct {
	tree *btree.BTreeG[extent.Range]
	free int
}

// New returns a list covering [0, capacity) as a single free range.
func New(capacity int) *List {
	l := &List{tree: btree.NewG(degree, extent.Less)}
	if capacity > 0 {
		l.tree.ReplaceOrInsert(extent.Range{Start: 0, End: capacity})
		l.free = capacity
	}
	return l
}

// FindFit returns the first member (ascending Start) with at least size
// elements. An exact match is removed; a larger member is split and its tail
// stays in place. ok is false when no member is large enough.
func (l *List) FindFit(size int) (r extent.Range, ok bool) {
	if size <= 0 {
		return extent.Range{}, false
	}
	var hit extent.Range
	l.tree.Ascend(func(m extent.Range) bool {
		if m.Len() >= size {
			hit, ok = m, true
			return false
		}
		return true
	})
	if !ok {
		return extent.Range{}, false
	}

	l.tree.Delete(hit)
	if hit.Len() > size {
		l.tree.ReplaceOrInsert(extent.Range{Start: hit.Start + size, End: hit.End})
	}
	l.free -= size
	return extent.Range{Start: hit.Start, End: hit.Start + size}, true
}

// Release returns r to the free set, merging every adjacent member into it.
// Releasing a range that overlaps a free member panics.
func (l *List) Release(r extent.Range) {
	if r.Empty() {
		extent.Violate("release", r, "empty range")
	}
	merged := r

	// predecessor: greatest member with Start <= r.Start
	var pred extent.Range
	hasPred := false
	l.tree.DescendLessOrEqual(r, func(m extent.Range) bool {
		pred, hasPred = m, true
		return false
	})
	if hasPred {
		if pred.Overlaps(r) {
			extent.Violate("release", r, "overlaps free range %v", pred)
		}
		if pred.End == r.Start {
			l.tree.Delete(pred)
			merged.Start = pred.Start
		}
	}

	// successor: smallest member with Start >= r.Start
	var succ extent.Range
	hasSucc := false
	l.tree.AscendGreaterOrEqual(r, func(m extent.Range) bool {
		succ, hasSucc = m, true
		return false
	})
	if hasSucc {
		if succ.Overlaps(r) {
			extent.Violate("release", r, "overlaps free range %v", succ)
		}
		if succ.Start == r.End {
			l.tree.Delete(succ)
			merged.End = succ.End
		}
	}

	l.tree.ReplaceOrInsert(merged)
	l.free += r.Len()
}

// Len returns the number of free members.
func (l *List) Len() int { return l.tree.Len() }

// Free returns the total number of free elements.
func (l *List) Free() int { return l.free }

// Largest returns the longest free member, or false if the list is empty.
func (l *List) Largest() (extent.Range, bool) {
	var best extent.Range
	found := false
	l.tree.Ascend(func(m extent.Range) bool {
		if !found || m.Len() > best.Len() {
			best, found = m, true
		}
		return true
	})
	return best, found
}

// Ascend calls fn for every member in ascending Start order until fn
// returns false.
func (l *List) Ascend(fn func(extent.Range) bool) { l.tree.Ascend(fn) }

// Reset makes [0, capacity) a single free range again.
func (l *List) Reset(capacity int) {
	l.tree.Clear(false)
	l.free = 0
	if capacity > 0 {
		l.tree.ReplaceOrInsert(extent.Range{Start: 0, End: capacity})
		l.free = capacity
	}
}
