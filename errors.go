package slabcache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/slabcache/internal/extent"
)

var (
	// ErrCapacityExceeded: no room even after evicting every resident record.
	ErrCapacityExceeded = errors.New("slabcache: capacity exceeded")
	// ErrOversized: the record is larger than the whole slab. Wraps ErrCapacityExceeded.
	ErrOversized = fmt.Errorf("%w: record larger than slab", ErrCapacityExceeded)
	// ErrMisaligned: input length is not a multiple of the stride.
	ErrMisaligned = errors.New("slabcache: input length not a multiple of stride")
	// ErrEmpty: zero-length input.
	ErrEmpty = errors.New("slabcache: empty input")
)

// InvariantError is the panic value raised when the free and allocated sets
// no longer tile the slab. Verify also returns it as an ordinary error.
type InvariantError = extent.Violation

// InsertError is returned by Insert when the record could not be cached.
// Evicted counts the records dropped by this call before it gave up.
type InsertError struct {
	Size     int // elements requested
	Capacity int
	Evicted  int
	Err      error
}

func (e *InsertError) Error() string {
	switch {
	case errors.Is(e.Err, ErrOversized):
		return fmt.Sprintf("slabcache: insert %d elements: exceeds capacity %d", e.Size, e.Capacity)
	case errors.Is(e.Err, ErrCapacityExceeded):
		return fmt.Sprintf("slabcache: insert %d elements: no room after evicting %d records (capacity %d)",
			e.Size, e.Evicted, e.Capacity)
	case e.Err != nil:
		return fmt.Sprintf("slabcache: insert %d elements: %v", e.Size, e.Err)
	default:
		return fmt.Sprintf("slabcache: insert %d elements: unknown error", e.Size)
	}
}

func (e *InsertError) Unwrap() error { return e.Err }
