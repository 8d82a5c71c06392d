package meshindex

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/slabcache"
)

func newSlab(t *testing.T, capacity, stride int) slabcache.Cache {
	t.Helper()
	c, err := slabcache.New(slabcache.Options{Capacity: capacity, Stride: stride, VerifyEachInsert: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func builder(calls *int, elems, stride int, fill byte) func() ([]byte, error) {
	return func() ([]byte, error) {
		*calls++
		return bytes.Repeat([]byte{fill}, elems*stride), nil
	}
}

func TestResolveUploadsOnceWhileResident(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 10, 2)
	r := NewResolver(slab, nil, ResolverOptions{Namespace: "solid"})

	calls := 0
	first, cached, err := r.Resolve(ctx, "cube", builder(&calls, 4, 2, 'c'))
	require.NoError(t, err)
	require.False(t, cached)

	again, cached, err := r.Resolve(ctx, "cube", builder(&calls, 4, 2, 'c'))
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, first, again)
	require.Equal(t, 1, calls)

	got, ok := r.Lookup(ctx, "cube")
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestResolveReuploadsAfterEviction(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 10, 1)
	ix := NewLocal()
	r := NewResolver(slab, ix, ResolverOptions{})

	calls := 0
	_, _, err := r.Resolve(ctx, "a", builder(&calls, 4, 1, 'a'))
	require.NoError(t, err)
	_, _, err = r.Resolve(ctx, "b", builder(&calls, 4, 1, 'b'))
	require.NoError(t, err)
	_, _, err = r.Resolve(ctx, "c", builder(&calls, 4, 1, 'c')) // evicts a
	require.NoError(t, err)

	_, ok := r.Lookup(ctx, "a")
	require.False(t, ok)

	rng, cached, err := r.Resolve(ctx, "a", builder(&calls, 4, 1, 'a')) // evicts b
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 4, rng.Len())
	require.Equal(t, 4, calls)
	require.Equal(t, 3, ix.Len(), "stale entry for a is replaced, b's entry lingers until resolved")
}

func TestResolveDropsEntriesFromAnotherStride(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 10, 4)
	ix := NewLocal()
	r := NewResolver(slab, ix, ResolverOptions{Namespace: "ns"})

	id, err := slab.Insert(ctx, make([]byte, 8))
	require.NoError(t, err)
	require.NoError(t, ix.Set(ctx, "mesh:ns:k", Entry{ID: id, Size: 2, Stride: 12}))

	calls := 0
	_, cached, err := r.Resolve(ctx, "k", builder(&calls, 2, 4, 'k'))
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 1, calls)

	e, ok, _ := ix.Get(ctx, "mesh:ns:k")
	require.True(t, ok)
	require.Equal(t, 4, e.Stride)
	require.NotEqual(t, id, e.ID)
}

func TestResolvePassesInsertErrorsThrough(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 4, 1)
	r := NewResolver(slab, nil, ResolverOptions{})

	calls := 0
	_, _, err := r.Resolve(ctx, "huge", builder(&calls, 5, 1, 'h'))
	require.ErrorIs(t, err, slabcache.ErrCapacityExceeded)
	_, ok := r.Lookup(ctx, "huge")
	require.False(t, ok)

	boom := errors.New("tessellation failed")
	_, _, err = r.Resolve(ctx, "bad", func() ([]byte, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

type brokenIndex struct{ Local }

func (*brokenIndex) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("index down")
}

func (*brokenIndex) Set(context.Context, string, Entry) error { return errors.New("index down") }

func TestResolveSurvivesIndexFailures(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 10, 1)
	r := NewResolver(slab, &brokenIndex{}, ResolverOptions{})

	calls := 0
	for i := 0; i < 2; i++ {
		_, cached, err := r.Resolve(ctx, "k", builder(&calls, 2, 1, 'k'))
		require.NoError(t, err)
		require.False(t, cached)
	}
	require.Equal(t, 2, calls)
	require.Equal(t, 2, slab.Len())
}

func TestResolveBytesSharesIdenticalContent(t *testing.T) {
	ctx := context.Background()
	slab := newSlab(t, 10, 1)
	r := NewResolver(slab, nil, ResolverOptions{})

	a, cachedA, err := r.ResolveBytes(ctx, []byte("tri"))
	require.NoError(t, err)
	b, cachedB, err := r.ResolveBytes(ctx, []byte("tri"))
	require.NoError(t, err)
	require.False(t, cachedA)
	require.True(t, cachedB)
	require.Equal(t, a, b)
	require.Equal(t, 1, slab.Len())

	require.NoError(t, r.Forget(ctx, "unused"))
}
