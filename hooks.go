package slabcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on the render thread.
type Hooks interface {
	// A resident record was evicted to make room for another insert.
	Evicted(slab string, id ID, r Range, clock uint64)

	// Insert returned InvalidID.
	// reason ∈ {"empty", "misaligned", "oversized", "exhausted", "store_error", "sequence_error"}
	InsertRejected(slab string, size int, reason string)

	// The backing store refused a write; the allocation was rolled back.
	StoreWriteFailed(slab string, r Range, err error)

	// Reset dropped every resident record.
	Reset(slab string, dropped int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Evicted(string, ID, Range, uint64)     {}
func (NopHooks) InsertRejected(string, int, string)    {}
func (NopHooks) StoreWriteFailed(string, Range, error) {}
func (NopHooks) Reset(string, int)                     {}
