// Package gpu backs a slab with a GPU vertex buffer.
//
// At construction the store allocates a buffer of exactly capacity*stride
// bytes plus a draw binding over it (the vertex array object of GL, or the
// vertex buffer slot + layout of WebGPU). Both handles are opaque here: the
// store forwards writes to the buffer and never touches the binding again;
// the rendering loop binds it at draw time.
package gpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/unkn0wn-root/slabcache/layout"
	"github.com/unkn0wn-root/slabcache/store"
)

// BufferHandle is an opaque handle to a device buffer.
type BufferHandle uint64

// BindingHandle is an opaque handle to a draw binding over a buffer.
type BindingHandle uint64

// InvalidHandle is the zero value, representing an invalid/null resource.
const InvalidHandle = 0

var (
	ErrNilDevice = errors.New("gpu store: nil device")
	ErrClosed    = errors.New("gpu store: closed")
)

// Device is the slice of a GPU backend the store needs.
type Device interface {
	CreateBuffer(size uint64, usage gputypes.BufferUsage) (BufferHandle, error)
	WriteBuffer(buf BufferHandle, offset uint64, data []byte) error
	DestroyBuffer(buf BufferHandle)

	CreateBinding(buf BufferHandle, l gputypes.VertexBufferLayout) (BindingHandle, error)
	DestroyBinding(b BindingHandle)
}

// Usage is the buffer usage requested for slab buffers.
const Usage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst

type Config struct {
	Device   Device
	Capacity int // elements
	Layout   gputypes.VertexBufferLayout
}

type Store struct {
	dev     Device
	size    int64
	buf     BufferHandle
	binding BindingHandle
	closed  bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.Device == nil {
		return nil, ErrNilDevice
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("gpu store: capacity must be positive, got %d", cfg.Capacity)
	}
	stride, err := layout.Stride(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("gpu store: %w", err)
	}
	size := int64(cfg.Capacity) * int64(stride)

	buf, err := cfg.Device.CreateBuffer(uint64(size), Usage)
	if err != nil {
		return nil, fmt.Errorf("gpu store: create buffer of %d bytes: %w", size, err)
	}
	binding, err := cfg.Device.CreateBinding(buf, cfg.Layout)
	if err != nil {
		cfg.Device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu store: create binding: %w", err)
	}
	return &Store{dev: cfg.Device, size: size, buf: buf, binding: binding}, nil
}

func (s *Store) Size() int64 { return s.size }

// Buffer returns the vertex buffer handle.
func (s *Store) Buffer() BufferHandle { return s.buf }

// Binding returns the draw binding handle for the rendering loop.
func (s *Store) Binding() BindingHandle { return s.binding }

func (s *Store) Write(_ context.Context, off int64, p []byte) error {
	if s.closed {
		return ErrClosed
	}
	if err := store.CheckRange(s.size, off, len(p)); err != nil {
		return err
	}
	return s.dev.WriteBuffer(s.buf, uint64(off), p)
}

// Close destroys the binding, then the buffer. Safe to call multiple times.
func (s *Store) Close(context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.dev.DestroyBinding(s.binding)
	s.dev.DestroyBuffer(s.buf)
	return nil
}
