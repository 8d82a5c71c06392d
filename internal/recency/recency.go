// Package recency names the least-recently-touched record of a slab.
package recency

import "github.com/google/btree"

const degree = 16

type entry struct {
	clock uint64
	id    uint64
}

func less(a, b entry) bool { return a.clock < b.clock }

// Tracker maps an increasing clock to record ids. One entry per id; the clock
// is owned by the tracker, not by the process.
type Tracker struct {
	byClock *btree.BTreeG[entry]
	byID    map[uint64]uint64 // id -> clock
	clock   uint64
}

func New() *Tracker {
	return &Tracker{
		byClock: btree.NewG(degree, less),
		byID:    make(map[uint64]uint64),
	}
}

// Touch records the current clock against id, replacing any prior entry, and
// advances the clock.
func (t *Tracker) Touch(id uint64) {
	if old, ok := t.byID[id]; ok {
		t.byClock.Delete(entry{clock: old})
	}
	t.byClock.ReplaceOrInsert(entry{clock: t.clock, id: id})
	t.byID[id] = t.clock
	t.clock++
}

// Oldest returns the id with the smallest clock.
func (t *Tracker) Oldest() (uint64, bool) {
	e, ok := t.byClock.Min()
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Forget drops id. Unknown ids are ignored.
func (t *Tracker) Forget(id uint64) {
	c, ok := t.byID[id]
	if !ok {
		return
	}
	t.byClock.Delete(entry{clock: c})
	delete(t.byID, id)
}

// Clock returns the clock last recorded for id.
func (t *Tracker) Clock(id uint64) (uint64, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Now returns the value the next Touch will record.
func (t *Tracker) Now() uint64 { return t.clock }

func (t *Tracker) Len() int { return len(t.byID) }

// Ascend visits ids from oldest to newest until fn returns false.
func (t *Tracker) Ascend(fn func(id, clock uint64) bool) {
	t.byClock.Ascend(func(e entry) bool { return fn(e.id, e.clock) })
}

// Reset forgets every id. The clock keeps running so later touches still
// order after earlier ones.
func (t *Tracker) Reset() {
	t.byClock.Clear(false)
	clear(t.byID)
}
