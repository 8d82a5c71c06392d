// Package mmap backs a slab with a shared memory mapping: anonymous by
// default, or file-backed so another process (a capture tool, a debugger)
// can watch the vertex bytes as they are uploaded.
package mmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/unkn0wn-root/slabcache/store"
)

var (
	ErrInvalidSize = errors.New("mmap store: size must be positive")
	ErrClosed      = errors.New("mmap store: closed")
)

type Config struct {
	Size int64
	// Path of the file to map. Empty maps anonymous memory.
	Path string
	// Truncate grows or shrinks an existing file to Size. Without it a file
	// of a different size is rejected.
	Truncate bool
}

type Store struct {
	data []byte
	file *os.File
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Reader = (*Store)(nil)
)

func New(cfg Config) (*Store, error) {
	if cfg.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.Path == "" {
		data, err := mapAnon(int(cfg.Size))
		if err != nil {
			return nil, fmt.Errorf("mmap store: %w", err)
		}
		return &Store{data: data}, nil
	}

	f, err := os.OpenFile(cfg.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mmap store: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap store: %w", err)
	}
	if fi.Size() != cfg.Size {
		if fi.Size() != 0 && !cfg.Truncate {
			_ = f.Close()
			return nil, fmt.Errorf("mmap store: %s has %d bytes, want %d", cfg.Path, fi.Size(), cfg.Size)
		}
		if err := f.Truncate(cfg.Size); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("mmap store: %w", err)
		}
	}
	data, err := mapFile(f.Fd(), int(cfg.Size))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap store: %w", err)
	}
	return &Store{data: data, file: f}, nil
}

func (s *Store) Size() int64 { return int64(len(s.data)) }

func (s *Store) Write(_ context.Context, off int64, p []byte) error {
	if s.data == nil {
		return ErrClosed
	}
	if err := store.CheckRange(s.Size(), off, len(p)); err != nil {
		return err
	}
	copy(s.data[off:], p)
	return nil
}

func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if s.data == nil {
		return 0, ErrClosed
	}
	if off < 0 || off >= s.Size() {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Sync flushes a file-backed mapping. No-op for anonymous memory.
func (s *Store) Sync() error {
	if s.data == nil {
		return ErrClosed
	}
	if s.file == nil {
		return nil
	}
	return sync(s.data)
}

// Close unmaps the region. Safe to call multiple times.
func (s *Store) Close(context.Context) error {
	if s.data == nil {
		return nil
	}
	var errs []error
	if s.file != nil {
		errs = append(errs, sync(s.data))
	}
	errs = append(errs, unmap(s.data))
	s.data = nil
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	return errors.Join(errs...)
}
