package meshindex

import (
	"context"

	"github.com/unkn0wn-root/slabcache"
	"github.com/unkn0wn-root/slabcache/internal/util"
)

// Resolver runs the query-or-insert draw path against one slab.
// Like the slab, it is not safe for concurrent use.
type Resolver struct {
	slab  slabcache.Cache
	index Index
	ns    string
	log   slabcache.Logger
}

type ResolverOptions struct {
	Namespace string           // key prefix; "" => "default"
	Logger    slabcache.Logger // if nil, NopLogger is used
}

func NewResolver(slab slabcache.Cache, index Index, opts ResolverOptions) *Resolver {
	if index == nil {
		index = NewLocal()
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "default"
	}
	var log slabcache.Logger = slabcache.NopLogger{}
	if opts.Logger != nil {
		log = opts.Logger
	}
	return &Resolver{slab: slab, index: index, ns: ns, log: log}
}

// Resolve returns the slab range holding the vertices for key. On a miss (or
// when the record was evicted) it calls build and uploads the result.
// cached reports whether the record was already resident.
//
// Errors from Insert are returned as-is; errors.Is(err,
// slabcache.ErrCapacityExceeded) means the caller should draw uncached.
// Index failures never fail a resolve; they only cost a re-upload.
func (r *Resolver) Resolve(ctx context.Context, key string, build func() ([]byte, error)) (rng slabcache.Range, cached bool, err error) {
	k := util.NamespacedKey(r.ns, key)

	e, ok, err := r.index.Get(ctx, k)
	if err != nil {
		r.log.Warn("index get failed; treating as miss", slabcache.Fields{"key": k, "err": err})
		ok = false
	}
	if ok {
		if rng, hit := r.lookup(e); hit {
			return rng, true, nil
		}
		if err := r.index.Del(ctx, k); err != nil {
			r.log.Warn("index del failed", slabcache.Fields{"key": k, "err": err})
		}
	}

	data, err := build()
	if err != nil {
		return slabcache.Range{}, false, err
	}
	id, err := r.slab.Insert(ctx, data)
	if err != nil {
		return slabcache.Range{}, false, err
	}
	rng, _ = r.slab.Query(id)

	ne := Entry{ID: id, Size: rng.Len(), Stride: r.slab.Stride()}
	if err := r.index.Set(ctx, k, ne); err != nil {
		r.log.Warn("index set failed", slabcache.Fields{"key": k, "err": err})
	}
	return rng, false, nil
}

// Lookup returns the resident range for key without uploading anything.
func (r *Resolver) Lookup(ctx context.Context, key string) (slabcache.Range, bool) {
	e, ok, err := r.index.Get(ctx, util.NamespacedKey(r.ns, key))
	if err != nil || !ok {
		return slabcache.Range{}, false
	}
	return r.lookup(e)
}

// ResolveBytes keys data by its content hash, so identical vertex runs share a
// record.
func (r *Resolver) ResolveBytes(ctx context.Context, data []byte) (slabcache.Range, bool, error) {
	return r.Resolve(ctx, util.ContentKey("vtx", data), func() ([]byte, error) { return data, nil })
}

// Forget drops key from the index. The slab record, if any, ages out normally.
func (r *Resolver) Forget(ctx context.Context, key string) error {
	return r.index.Del(ctx, util.NamespacedKey(r.ns, key))
}

// lookup validates e against the slab. Entries from another stride or whose
// id now spans a different size are stale.
func (r *Resolver) lookup(e Entry) (slabcache.Range, bool) {
	if e.Stride != r.slab.Stride() {
		return slabcache.Range{}, false
	}
	rng, ok := r.slab.Query(e.ID)
	if !ok || rng.Len() != e.Size {
		return slabcache.Range{}, false
	}
	return rng, true
}
