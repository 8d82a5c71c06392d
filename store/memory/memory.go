// Package memory is an in-process backing region.
package memory

import (
	"context"
	"errors"
	"io"

	"github.com/unkn0wn-root/slabcache/store"
)

var ErrInvalidSize = errors.New("memory store: size must be positive")

type Store struct {
	buf []byte
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Reader = (*Store)(nil)
)

func New(size int64) (*Store, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Store{buf: make([]byte, size)}, nil
}

func (s *Store) Size() int64 { return int64(len(s.buf)) }

func (s *Store) Write(_ context.Context, off int64, p []byte) error {
	if err := store.CheckRange(s.Size(), off, len(p)); err != nil {
		return err
	}
	copy(s.buf[off:], p)
	return nil
}

func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.Size() {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes exposes the region. Callers must not write through it.
func (s *Store) Bytes() []byte { return s.buf }

func (s *Store) Close(context.Context) error { return nil }
