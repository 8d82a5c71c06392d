package slabcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/btree"

	"github.com/unkn0wn-root/slabcache/internal/extent"
	"github.com/unkn0wn-root/slabcache/internal/freelist"
	"github.com/unkn0wn-root/slabcache/internal/recency"
	"github.com/unkn0wn-root/slabcache/layout"
	"github.com/unkn0wn-root/slabcache/seq"
	"github.com/unkn0wn-root/slabcache/store"
	"github.com/unkn0wn-root/slabcache/store/memory"
)

type allocation struct {
	r  Range
	id ID
}

func allocLess(a, b allocation) bool { return a.r.Start < b.r.Start }

type slab struct {
	name     string
	capacity int
	stride   int
	policy   Policy
	verify   bool

	store store.Store
	seq   seq.Sequence
	log   Logger
	hooks Hooks

	// free ∪ allocated tiles [0, capacity)
	free    *freelist.List
	byID    map[ID]Range
	byStart *btree.BTreeG[allocation]
	used    int // elements held by resident records
	recency *recency.Tracker

	stats Stats
}

func newSlab(opts Options) (*slab, error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("slabcache: capacity must be positive, got %d", opts.Capacity)
	}
	stride := opts.Stride
	if stride == 0 && opts.Layout != nil {
		s, err := layout.Stride(*opts.Layout)
		if err != nil {
			return nil, fmt.Errorf("slabcache: %w", err)
		}
		stride = s
	}
	if stride <= 0 {
		return nil, fmt.Errorf("slabcache: stride or layout is required")
	}
	if opts.Policy != PolicyLRU && opts.Policy != PolicyInsertionOrder {
		return nil, fmt.Errorf("slabcache: unknown policy %d", opts.Policy)
	}

	size := int64(opts.Capacity) * int64(stride)
	st := opts.Store
	if st == nil {
		m, err := memory.New(size)
		if err != nil {
			return nil, fmt.Errorf("slabcache: %w", err)
		}
		st = m
	} else if st.Size() != size {
		return nil, fmt.Errorf("slabcache: store holds %d bytes, want capacity*stride = %d", st.Size(), size)
	}

	c := &slab{
		name:     coalesce(opts.Name, defaultName),
		capacity: opts.Capacity,
		stride:   stride,
		policy:   opts.Policy,
		verify:   opts.VerifyEachInsert,
		store:    st,
		free:     freelist.New(opts.Capacity),
		byID:     make(map[ID]Range),
		byStart:  btree.NewG(16, allocLess),
		recency:  recency.New(),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.seq = coalesce[seq.Sequence](opts.Sequence, seq.NewLocal())

	c.log.Info("slab created", c.fields(Fields{
		"capacity": c.capacity,
		"stride":   c.stride,
		"bytes":    size,
		"policy":   c.policy.String(),
	}))
	return c, nil
}

func (c *slab) Capacity() int { return c.capacity }
func (c *slab) Stride() int   { return c.stride }
func (c *slab) Len() int      { return len(c.byID) }

func (c *slab) PercentageUsed() float64 {
	return float64(c.used) / float64(c.capacity) * 100
}

func (c *slab) Query(id ID) (Range, bool) {
	r, ok := c.byID[id]
	if !ok {
		c.stats.Misses++
		return Range{}, false
	}
	if c.policy == PolicyLRU {
		c.recency.Touch(uint64(id))
	}
	c.stats.Hits++
	return r, true
}

func (c *slab) Owner(i int) (ID, bool) {
	if i < 0 || i >= c.capacity {
		return InvalidID, false
	}
	var hit allocation
	found := false
	c.byStart.DescendLessOrEqual(allocation{r: Range{Start: i}}, func(a allocation) bool {
		hit, found = a, true
		return false
	})
	if !found || !hit.r.Contains(i) {
		return InvalidID, false
	}
	return hit.id, true
}

func (c *slab) Insert(ctx context.Context, data []byte) (ID, error) {
	size, err := c.elements(data)
	if err != nil {
		return InvalidID, err
	}

	evicted := 0
	for {
		if r, ok := c.free.FindFit(size); ok {
			id, err := c.commit(ctx, r, data)
			if err != nil {
				return InvalidID, err
			}
			if c.verify {
				if err := c.Verify(); err != nil {
					panic(err)
				}
			}
			return id, nil
		}

		victim, ok := c.recency.Oldest()
		if !ok {
			if c.free.Free() == c.capacity {
				extent.Violate("insert", Range{End: size}, "slab is empty but %d free elements are not contiguous", c.capacity)
			}
			c.reject(size, "exhausted")
			return InvalidID, &InsertError{Size: size, Capacity: c.capacity, Evicted: evicted, Err: ErrCapacityExceeded}
		}
		c.evict(ID(victim))
		evicted++
	}
}

// elements validates data and returns its element count.
func (c *slab) elements(data []byte) (int, error) {
	switch {
	case len(data) == 0:
		c.reject(0, "empty")
		return 0, ErrEmpty
	case len(data)%c.stride != 0:
		c.reject(0, "misaligned")
		return 0, fmt.Errorf("%w: %d bytes, stride %d", ErrMisaligned, len(data), c.stride)
	}
	size := len(data) / c.stride
	if size > c.capacity {
		// no amount of eviction can help; leave residents alone
		c.reject(size, "oversized")
		return 0, &InsertError{Size: size, Capacity: c.capacity, Err: ErrOversized}
	}
	return size, nil
}

// commit turns a fit into a resident record. On failure the fit is released
// and nothing else changes.
func (c *slab) commit(ctx context.Context, r Range, data []byte) (ID, error) {
	raw, err := c.seq.Next(ctx)
	if err != nil {
		c.free.Release(r)
		c.reject(r.Len(), "sequence_error")
		c.log.Error("id sequence failed", c.fields(Fields{"err": err}))
		return InvalidID, &InsertError{Size: r.Len(), Capacity: c.capacity, Err: fmt.Errorf("next id: %w", err)}
	}
	id := ID(raw)
	if id == InvalidID {
		extent.Violate("insert", r, "sequence issued the invalid id")
	}
	if _, dup := c.byID[id]; dup {
		extent.Violate("insert", r, "sequence reissued live id %d", id)
	}

	off, n := r.Bytes(c.stride)
	if n != int64(len(data)) || store.CheckRange(c.store.Size(), off, len(data)) != nil {
		extent.Violate("insert", r, "write of %d bytes at %d outside store of %d", len(data), off, c.store.Size())
	}
	if err := c.store.Write(ctx, off, data); err != nil {
		c.free.Release(r)
		c.stats.StoreErrors++
		c.hooks.StoreWriteFailed(c.name, r, err)
		c.reject(r.Len(), "store_error")
		c.log.Error("store write failed; allocation rolled back", c.fields(Fields{"range": r.String(), "err": err}))
		return InvalidID, &InsertError{Size: r.Len(), Capacity: c.capacity, Err: fmt.Errorf("store write at %d: %w", off, err)}
	}

	c.byID[id] = r
	c.byStart.ReplaceOrInsert(allocation{r: r, id: id})
	c.used += r.Len()
	c.recency.Touch(uint64(id))
	c.stats.Inserts++
	return id, nil
}

func (c *slab) evict(id ID) {
	r, ok := c.byID[id]
	if !ok {
		extent.Violate("evict", Range{}, "recency names id %d which is not allocated", id)
	}
	clock, _ := c.recency.Clock(uint64(id))

	delete(c.byID, id)
	c.byStart.Delete(allocation{r: r})
	c.used -= r.Len()
	c.free.Release(r)
	c.recency.Forget(uint64(id))

	c.stats.Evictions++
	c.hooks.Evicted(c.name, id, r, clock)
	c.log.Debug("evicted", c.fields(Fields{"id": uint64(id), "range": r.String(), "clock": clock}))
}

func (c *slab) reject(size int, reason string) {
	c.stats.Rejected++
	c.hooks.InsertRejected(c.name, size, reason)
	c.log.Debug("insert rejected", c.fields(Fields{"size": size, "reason": reason}))
}

func (c *slab) Reset() {
	dropped := len(c.byID)
	clear(c.byID)
	c.byStart.Clear(false)
	c.used = 0
	c.free.Reset(c.capacity)
	c.recency.Reset()
	c.stats.Resets++
	c.hooks.Reset(c.name, dropped)
	c.log.Info("slab reset", c.fields(Fields{"dropped": dropped}))
}

func (c *slab) Close(ctx context.Context) error {
	var errs []error
	if c.seq != nil {
		if err := c.seq.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.store != nil {
		if err := c.store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
