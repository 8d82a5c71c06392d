// Package meshindex maps caller keys (shape uids, content hashes) to slab
// record ids. The slab never deduplicates content; renderers keep this map
// next to it and re-resolve on every draw, re-uploading when the record has
// been evicted.
//
// Indexes are best-effort: a lost or stale entry only costs a re-upload.
package meshindex

import (
	"context"

	"github.com/unkn0wn-root/slabcache"
	"github.com/unkn0wn-root/slabcache/internal/wire"
)

// Entry is what an index remembers for one key. Size and Stride let a reader
// reject entries written for another vertex layout or a recycled id.
type Entry struct {
	ID     slabcache.ID
	Size   int // elements
	Stride int // bytes per element
}

// Index stores Entries by key. Implementations must be safe for concurrent use.
type Index interface {
	// Get returns (entry, true, nil) on hit; (Entry{}, false, nil) on miss.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set stores e. Stores under memory pressure may silently drop it.
	Set(ctx context.Context, key string, e Entry) error
	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

func encode(e Entry) []byte {
	return wire.EncodeRef(wire.Ref{ID: uint64(e.ID), Size: uint32(e.Size), Stride: uint32(e.Stride)})
}

func decode(b []byte) (Entry, error) {
	r, err := wire.DecodeRef(b)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: slabcache.ID(r.ID), Size: int(r.Size), Stride: int(r.Stride)}, nil
}
