package slabcache

import (
	"context"

	"github.com/gogpu/gputypes"

	"github.com/unkn0wn-root/slabcache/internal/extent"
	"github.com/unkn0wn-root/slabcache/seq"
	"github.com/unkn0wn-root/slabcache/store"
)

// ID names a cached record. Ids are issued by Insert, never reused, and never
// equal InvalidID.
type ID uint64

// InvalidID is returned by Insert when the record could not be cached.
const InvalidID ID = 0

// Range is the half-open element interval [Start, End) a record occupies.
// Multiply by Stride() for byte offsets into the backing store.
type Range = extent.Range

// Policy decides which operations refresh a record's recency.
type Policy int

const (
	// PolicyLRU refreshes on Insert and on every successful Query.
	PolicyLRU Policy = iota
	// PolicyInsertionOrder refreshes on Insert only; eviction is FIFO.
	PolicyInsertionOrder
)

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyInsertionOrder:
		return "insertion-order"
	default:
		return "unknown"
	}
}

// Cache is a fixed-capacity slab of fixed-stride records with LRU eviction.
//
// A Cache is not safe for concurrent use. A Range returned by Query is a view
// into shared capacity: it stays valid only until the next Insert,
// which may evict that very record. Re-query right before each use.
type Cache interface {
	// Query returns the Range of a resident record and, under PolicyLRU,
	// marks it recently used. Absent ids return ok=false with no side effects.
	Query(id ID) (r Range, ok bool)

	// Insert copies data into the slab and returns its new id. len(data) must
	// be a non-zero multiple of Stride(). On failure it returns InvalidID and
	// an error; records evicted before the failure stay evicted.
	Insert(ctx context.Context, data []byte) (ID, error)

	// PercentageUsed is the share of elements held by resident records, in [0, 100].
	PercentageUsed() float64

	Capacity() int // elements
	Stride() int   // bytes per element

	// Owner returns the record covering element i.
	Owner(i int) (ID, bool)
	// Len returns the number of resident records.
	Len() int

	Stats() Stats
	Snapshot() Snapshot
	// Verify checks the structural invariants and returns an *InvariantError
	// describing the first one that does not hold.
	Verify() error

	// Reset drops every record. Ids issued before Reset stay dead.
	Reset()
	Close(context.Context) error
}

// Options tune the slab. Capacity and one of Stride or Layout are required;
// others have sensible defaults.
type Options struct {
	// Required
	Capacity int                          // element count, fixed for the slab's lifetime
	Stride   int                          // bytes per element; 0 => derived from Layout
	Layout   *gputypes.VertexBufferLayout // consulted only when Stride is 0

	Name     string       // for logs and hooks; "" => "mesh"
	Store    store.Store  // nil => in-memory region of Capacity*Stride bytes
	Sequence seq.Sequence // nil => seq.Local
	Policy   Policy       // default PolicyLRU
	Logger   Logger       // if nil, NopLogger is used
	Hooks    Hooks        // if nil, NopHooks is used

	// VerifyEachInsert runs Verify after every Insert and panics on failure.
	// Costs O(records) per insert; meant for tests and debug builds.
	VerifyEachInsert bool
}

func New(opts Options) (Cache, error) {
	c, err := newSlab(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}
