// Package store defines the backing region a slab writes record bytes into.
//
// A Store is a fixed-size linear byte region. It is exclusively owned by one
// slab and written only by that slab's Insert; nothing else may write into it.
// Implementations never resize. Offsets handed to Write are always range
// checked by the slab first, so an out-of-range write is a programming error
// and implementations may treat it as such.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by implementations asked to write past Size.
var ErrOutOfRange = errors.New("store: write out of range")

// Store is the byte region behind a slab.
type Store interface {
	// Size returns the region length in bytes.
	Size() int64

	// Write copies p into the region at byte offset off.
	Write(ctx context.Context, off int64, p []byte) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Reader is implemented by stores that can read their region back.
type Reader interface {
	ReadAt(p []byte, off int64) (int, error)
}

// CheckRange validates [off, off+n) against size.
func CheckRange(size, off int64, n int) error {
	if off < 0 || n < 0 || off > size || int64(n) > size-off {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, off, off+int64(n), size)
	}
	return nil
}
