// Package slabcache packs variable-length, fixed-stride records (triangulated
// mesh vertices headed for a GPU vertex buffer) into one fixed-size backing
// region, reuses records that are still resident, and evicts the
// least-recently-touched records when space runs out.
//
// Components:
//   - Store: the backing region (memory, mmap, GPU buffer, Redis mirror).
//   - Free list: unused element ranges, first-fit, coalesced on release.
//   - Recency tracker: clock per record; names the eviction victim.
//   - Cache: the facade composing the three. Query and Insert.
//
// Typical draw path:
//
//	r, ok := slab.Query(id)
//	if !ok {
//	    id, err = slab.Insert(ctx, vertices) // may evict older records
//	    if err != nil { drawUncached(vertices); return }
//	    r, _ = slab.Query(id)
//	}
//	draw(r) // r is valid until the next Insert
//
// Callers own the mapping from their shapes to ids; see package meshindex.
// The cache is single-threaded and does no locking.
package slabcache
