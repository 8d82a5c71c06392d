package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/slabcache"
	"github.com/unkn0wn-root/slabcache/layout"
	"github.com/unkn0wn-root/slabcache/meshindex"
	"github.com/unkn0wn-root/slabcache/seq"
	"github.com/unkn0wn-root/slabcache/store"
	"github.com/unkn0wn-root/slabcache/store/memory"
	"github.com/unkn0wn-root/slabcache/store/mmap"
	redisstore "github.com/unkn0wn-root/slabcache/store/redis"
)

// Result records the outcome of one applied op.
type Result struct {
	Op     string `json:"op"`
	Name   string `json:"name,omitempty"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Cached bool   `json:"cached"`
	Err    string `json:"err,omitempty"`
}

// Report is what --report writes.
type Report struct {
	Snapshot slabcache.Snapshot `json:"snapshot"`
	Results  []Result           `json:"results"`
}

// Sim owns a slab, its collaborators and a resolver in front of it.
type Sim struct {
	cache    slabcache.Cache
	resolver *meshindex.Resolver
	index    meshindex.Index
	rdb      *goredis.Client
	shadow   *memory.Store // nil unless Workload.Shadow
}

func openSim(ctx context.Context, w Workload, log slabcache.Logger, hooks slabcache.Hooks) (_ *Sim, err error) {
	s := &Sim{}
	var primary store.Store
	defer func() {
		if err == nil {
			return
		}
		if s.cache == nil && primary != nil {
			_ = primary.Close(ctx)
		}
		_ = s.Close(ctx)
	}()

	policy, err := w.policy()
	if err != nil {
		return nil, err
	}
	opts := slabcache.Options{
		Capacity: w.Capacity,
		Stride:   w.Stride,
		Name:     w.Name,
		Policy:   policy,
		Logger:   log,
		Hooks:    hooks,
	}
	stride := w.Stride
	if stride == 0 {
		if opts.Layout, err = w.layout(); err != nil {
			return nil, err
		}
		if stride, err = layout.Stride(*opts.Layout); err != nil {
			return nil, err
		}
	}
	size := int64(w.Capacity) * int64(stride)

	if w.Store == "redis" || w.Index == "redis" {
		if w.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis needs redis_addr", errConfigInvalid)
		}
		s.rdb = goredis.NewClient(&goredis.Options{Addr: w.RedisAddr})
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	switch w.Store {
	case "", "memory":
	case "mmap":
		m, err := mmap.New(mmap.Config{Size: size, Path: w.MmapPath, Truncate: true})
		if err != nil {
			return nil, err
		}
		primary = m
	case "redis":
		r, err := redisstore.New(ctx, redisstore.Config{
			Client:        s.rdb,
			Key:           "slab:" + w.Name,
			Size:          size,
			DeleteOnClose: true,
		})
		if err != nil {
			return nil, err
		}
		primary = r
		sq, err := seq.NewRedis(seq.RedisConfig{Client: s.rdb, Namespace: w.Name})
		if err != nil {
			return nil, err
		}
		opts.Sequence = sq
	default:
		return nil, fmt.Errorf("%w: unknown store %q", errConfigInvalid, w.Store)
	}

	if w.Shadow {
		if s.shadow, err = memory.New(size); err != nil {
			return nil, err
		}
		if primary == nil {
			primary = s.shadow
		} else {
			tee, err := store.NewTee(s.shadow, primary)
			if err != nil {
				return nil, err
			}
			primary = tee
		}
	}
	opts.Store = primary

	index, err := openIndex(w, s.rdb)
	if err != nil {
		return nil, err
	}
	s.index = index
	if s.cache, err = slabcache.New(opts); err != nil {
		return nil, err
	}
	s.resolver = meshindex.NewResolver(s.cache, s.index, meshindex.ResolverOptions{Namespace: w.Name, Logger: log})
	return s, nil
}

func openIndex(w Workload, rdb *goredis.Client) (meshindex.Index, error) {
	switch w.Index {
	case "", "local":
		return meshindex.NewLocal(), nil
	case "ristretto":
		r, err := meshindex.NewRistretto(meshindex.RistrettoConfig{
			NumCounters: 1 << 20,
			MaxCost:     64 << 20,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case "bigcache":
		b, err := meshindex.NewBigCache(meshindex.BigCacheConfig{LifeWindow: time.Hour})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		r, err := meshindex.NewRedis(meshindex.RedisConfig{Client: rdb})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: unknown index %q", errConfigInvalid, w.Index)
	}
}

// Apply runs one op. Insert failures are reported in the Result, not
// returned: a rejected mesh is drawn uncached and the run goes on.
func (s *Sim) Apply(ctx context.Context, op Op) []Result {
	switch op.Op {
	case "insert":
		if op.Count <= 1 {
			return []Result{s.insert(ctx, op.Name, op.Size, op.Fill)}
		}
		out := make([]Result, 0, op.Count)
		for i := 0; i < op.Count; i++ {
			out = append(out, s.insert(ctx, op.Name+"#"+strconv.Itoa(i), op.Size, op.Fill))
		}
		return out
	case "query":
		res := Result{Op: "query", Name: op.Name}
		if r, ok := s.resolver.Lookup(ctx, op.Name); ok {
			res.Start, res.End, res.Cached = r.Start, r.End, true
		}
		return []Result{res}
	case "reset":
		s.cache.Reset()
		return []Result{{Op: "reset"}}
	case "verify":
		res := Result{Op: "verify"}
		if err := s.cache.Verify(); err != nil {
			res.Err = err.Error()
		}
		return []Result{res}
	default:
		return []Result{{Op: op.Op, Err: errUnknownOp.Error()}}
	}
}

func (s *Sim) insert(ctx context.Context, name string, size, fill int) Result {
	res := Result{Op: "insert", Name: name}
	r, cached, err := s.resolver.Resolve(ctx, name, func() ([]byte, error) {
		if size <= 0 {
			return nil, nil
		}
		return bytes.Repeat([]byte{byte(fill)}, size*s.cache.Stride()), nil
	})
	if err != nil {
		if errors.Is(err, slabcache.ErrCapacityExceeded) {
			res.Err = "uncached: " + err.Error()
		} else {
			res.Err = err.Error()
		}
		return res
	}
	res.Start, res.End, res.Cached = r.Start, r.End, cached
	return res
}

// Run applies every op in order.
func (s *Sim) Run(ctx context.Context, ops []Op) []Result {
	var out []Result
	for _, op := range ops {
		out = append(out, s.Apply(ctx, op)...)
	}
	return out
}

func (s *Sim) Close(ctx context.Context) error {
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close(ctx))
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close(ctx))
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
