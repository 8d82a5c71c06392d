package sloghooks

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/slabcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	EvictedEvery  uint64
	RejectedEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	evictedCtr  atomic.Uint64
	rejectedCtr atomic.Uint64
}

var _ slabcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Evicted(slab string, id slabcache.ID, r slabcache.Range, clock uint64) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictedCtr) {
		return
	}
	h.l.Debug("slabcache.evicted",
		"slab", slab,
		"id", uint64(id),
		"start", r.Start,
		"end", r.End,
		"clock", clock)
}

// InsertRejected logs capacity rejections at Info and input errors
// ("empty", "misaligned") at Warn.
func (h *Hooks) InsertRejected(slab string, size int, reason string) {
	if h.l == nil || !sample(h.opts.RejectedEvery, &h.rejectedCtr) {
		return
	}
	level := slog.LevelInfo
	if reason == "empty" || reason == "misaligned" {
		level = slog.LevelWarn
	}
	h.l.Log(context.Background(), level, "slabcache.insert_rejected",
		"slab", slab,
		"size", size,
		"reason", reason)
}

func (h *Hooks) StoreWriteFailed(slab string, r slabcache.Range, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("slabcache.store_write_failed",
		"slab", slab,
		"start", r.Start,
		"end", r.End,
		"err", err)
}

func (h *Hooks) Reset(slab string, dropped int) {
	if h.l == nil {
		return
	}
	h.l.Info("slabcache.reset",
		"slab", slab,
		"dropped", dropped)
}
