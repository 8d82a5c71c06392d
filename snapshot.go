package slabcache

import (
	"fmt"

	"github.com/unkn0wn-root/slabcache/internal/extent"
)

// Stats are running counters since construction.
type Stats struct {
	Inserts     uint64 `json:"inserts" cbor:"inserts" msgpack:"inserts"`
	Hits        uint64 `json:"hits" cbor:"hits" msgpack:"hits"`
	Misses      uint64 `json:"misses" cbor:"misses" msgpack:"misses"`
	Evictions   uint64 `json:"evictions" cbor:"evictions" msgpack:"evictions"`
	Rejected    uint64 `json:"rejected" cbor:"rejected" msgpack:"rejected"`
	StoreErrors uint64 `json:"store_errors" cbor:"store_errors" msgpack:"store_errors"`
	Resets      uint64 `json:"resets" cbor:"resets" msgpack:"resets"`
}

// Record describes one resident record.
type Record struct {
	ID    ID     `json:"id" cbor:"id" msgpack:"id"`
	Start int    `json:"start" cbor:"start" msgpack:"start"`
	End   int    `json:"end" cbor:"end" msgpack:"end"`
	Clock uint64 `json:"clock" cbor:"clock" msgpack:"clock"`
}

// Span is a free element range.
type Span struct {
	Start int `json:"start" cbor:"start" msgpack:"start"`
	End   int `json:"end" cbor:"end" msgpack:"end"`
}

// Snapshot is a point-in-time copy of the slab layout for diagnostics.
// Records and Free are ordered by Start.
type Snapshot struct {
	Name           string   `json:"name" cbor:"name" msgpack:"name"`
	Capacity       int      `json:"capacity" cbor:"capacity" msgpack:"capacity"`
	Stride         int      `json:"stride" cbor:"stride" msgpack:"stride"`
	Policy         string   `json:"policy" cbor:"policy" msgpack:"policy"`
	PercentageUsed float64  `json:"percentage_used" cbor:"percentage_used" msgpack:"percentage_used"`
	Records        []Record `json:"records" cbor:"records" msgpack:"records"`
	Free           []Span   `json:"free" cbor:"free" msgpack:"free"`
	Stats          Stats    `json:"stats" cbor:"stats" msgpack:"stats"`
}

func (c *slab) Stats() Stats { return c.stats }

func (c *slab) Snapshot() Snapshot {
	s := Snapshot{
		Name:           c.name,
		Capacity:       c.capacity,
		Stride:         c.stride,
		Policy:         c.policy.String(),
		PercentageUsed: c.PercentageUsed(),
		Records:        make([]Record, 0, len(c.byID)),
		Free:           make([]Span, 0, c.free.Len()),
		Stats:          c.stats,
	}
	c.byStart.Ascend(func(a allocation) bool {
		clock, _ := c.recency.Clock(uint64(a.id))
		s.Records = append(s.Records, Record{ID: a.id, Start: a.r.Start, End: a.r.End, Clock: clock})
		return true
	})
	c.free.Ascend(func(r extent.Range) bool {
		s.Free = append(s.Free, Span{Start: r.Start, End: r.End})
		return true
	})
	return s
}

// Verify walks free and allocated ranges in address order and checks that
// they tile [0, capacity) with no two free ranges touching, and that the
// recency index names exactly the resident records.
func (c *slab) Verify() error {
	fail := func(r Range, format string, args ...any) error {
		return &InvariantError{Op: "verify", Range: r, Detail: fmt.Sprintf(format, args...)}
	}

	type piece struct {
		r    Range
		free bool
	}
	var frees, allocs []piece
	c.free.Ascend(func(r extent.Range) bool {
		frees = append(frees, piece{r: r, free: true})
		return true
	})
	c.byStart.Ascend(func(a allocation) bool {
		allocs = append(allocs, piece{r: a.r})
		return true
	})

	cursor, used, freeTotal := 0, 0, 0
	prevFree := false
	for i, j := 0, 0; i < len(frees) || j < len(allocs); {
		var p piece
		if j >= len(allocs) || (i < len(frees) && frees[i].r.Start < allocs[j].r.Start) {
			p = frees[i]
			i++
		} else {
			p = allocs[j]
			j++
		}
		switch {
		case p.r.Empty():
			return fail(p.r, "empty range")
		case p.r.Start < cursor:
			return fail(p.r, "overlaps previous range ending at %d", cursor)
		case p.r.Start > cursor:
			return fail(Range{Start: cursor, End: p.r.Start}, "gap not covered by any range")
		case p.free && prevFree:
			return fail(p.r, "free range adjacent to previous free range")
		}
		if p.free {
			freeTotal += p.r.Len()
		} else {
			used += p.r.Len()
		}
		cursor = p.r.End
		prevFree = p.free
	}

	switch {
	case cursor != c.capacity:
		return fail(Range{Start: cursor, End: c.capacity}, "ranges end at %d, capacity %d", cursor, c.capacity)
	case used != c.used:
		return fail(Range{End: c.capacity}, "allocated elements %d, accounted %d", used, c.used)
	case freeTotal != c.free.Free():
		return fail(Range{End: c.capacity}, "free elements %d, accounted %d", freeTotal, c.free.Free())
	case len(allocs) != len(c.byID):
		return fail(Range{End: c.capacity}, "%d ranges by start, %d by id", len(allocs), len(c.byID))
	case c.recency.Len() != len(c.byID):
		return fail(Range{End: c.capacity}, "%d recency entries for %d records", c.recency.Len(), len(c.byID))
	}
	for id, r := range c.byID {
		if _, ok := c.recency.Clock(uint64(id)); !ok {
			return fail(r, "record %d has no recency entry", id)
		}
	}
	return nil
}
