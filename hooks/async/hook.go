// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{EvictedEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	slab, _ := slabcache.New(slabcache.Options{
//	    Capacity: slabcache.ShadedCapacity,
//	    Layout:   &layout.Shaded,
//	    Hooks:    hooks, // or `raw` to run hooks on the render thread
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/slabcache"
)

// Hooks moves hook calls off the render thread. Events are dropped, not
// queued, when the buffer is full; Dropped reports how many.
type Hooks struct {
	inner   slabcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards closed against close(q)
	closed  bool
	dropped atomic.Uint64
}

var _ slabcache.Hooks = (*Hooks)(nil)

func New(inner slabcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Calls after Close are dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Evicted(slab string, id slabcache.ID, r slabcache.Range, clock uint64) {
	h.try(func() { h.inner.Evicted(slab, id, r, clock) })
}
func (h *Hooks) InsertRejected(slab string, size int, reason string) {
	h.try(func() { h.inner.InsertRejected(slab, size, reason) })
}
func (h *Hooks) StoreWriteFailed(slab string, r slabcache.Range, err error) {
	h.try(func() { h.inner.StoreWriteFailed(slab, r, err) })
}
func (h *Hooks) Reset(slab string, dropped int) { h.try(func() { h.inner.Reset(slab, dropped) }) }
