package store

import (
	"context"
	"errors"
	"fmt"
)

// Tee fans writes out to several stores of equal size, e.g. a GPU buffer and
// a memory shadow used for readback. ReadAt is served by the first member
// that implements Reader.
type Tee struct {
	size    int64
	members []Store
}

var _ Store = (*Tee)(nil)

func NewTee(members ...Store) (*Tee, error) {
	if len(members) == 0 {
		return nil, errors.New("store: tee needs at least one member")
	}
	size := members[0].Size()
	for i, m := range members[1:] {
		if m.Size() != size {
			return nil, fmt.Errorf("store: tee member %d has size %d, want %d", i+1, m.Size(), size)
		}
	}
	return &Tee{size: size, members: members}, nil
}

func (t *Tee) Size() int64 { return t.size }

// Write stops at the first failing member; earlier members keep the bytes.
func (t *Tee) Write(ctx context.Context, off int64, p []byte) error {
	for i, m := range t.members {
		if err := m.Write(ctx, off, p); err != nil {
			return fmt.Errorf("store: tee member %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tee) ReadAt(p []byte, off int64) (int, error) {
	for _, m := range t.members {
		if r, ok := m.(Reader); ok {
			return r.ReadAt(p, off)
		}
	}
	return 0, errors.New("store: no tee member supports reads")
}

// Close closes every member and joins their errors.
func (t *Tee) Close(ctx context.Context) error {
	var errs []error
	for _, m := range t.members {
		if err := m.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
