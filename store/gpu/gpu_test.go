package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/unkn0wn-root/slabcache/layout"
	"github.com/unkn0wn-root/slabcache/store"
)

type fakeDevice struct {
	next       uint64
	buffers    map[BufferHandle][]byte
	usage      gputypes.BufferUsage
	bindings   map[BindingHandle]gputypes.VertexBufferLayout
	bindingErr error
	destroyed  []string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		buffers:  make(map[BufferHandle][]byte),
		bindings: make(map[BindingHandle]gputypes.VertexBufferLayout),
	}
}

func (d *fakeDevice) CreateBuffer(size uint64, usage gputypes.BufferUsage) (BufferHandle, error) {
	d.next++
	h := BufferHandle(d.next)
	d.buffers[h] = make([]byte, size)
	d.usage = usage
	return h, nil
}

func (d *fakeDevice) WriteBuffer(buf BufferHandle, offset uint64, data []byte) error {
	b, ok := d.buffers[buf]
	if !ok {
		return errors.New("unknown buffer")
	}
	copy(b[offset:], data)
	return nil
}

func (d *fakeDevice) DestroyBuffer(buf BufferHandle) {
	delete(d.buffers, buf)
	d.destroyed = append(d.destroyed, "buffer")
}

func (d *fakeDevice) CreateBinding(_ BufferHandle, l gputypes.VertexBufferLayout) (BindingHandle, error) {
	if d.bindingErr != nil {
		return InvalidHandle, d.bindingErr
	}
	d.next++
	h := BindingHandle(d.next)
	d.bindings[h] = l
	return h, nil
}

func (d *fakeDevice) DestroyBinding(b BindingHandle) {
	delete(d.bindings, b)
	d.destroyed = append(d.destroyed, "binding")
}

func TestStoreSizesBufferFromLayout(t *testing.T) {
	dev := newFakeDevice()
	s, err := New(Config{Device: dev, Capacity: 100, Layout: layout.Shaded})
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 4800 || len(dev.buffers[s.Buffer()]) != 4800 {
		t.Fatalf("Size=%d buffer=%d want 4800", s.Size(), len(dev.buffers[s.Buffer()]))
	}
	if dev.usage != Usage {
		t.Fatalf("usage=%v want %v", dev.usage, Usage)
	}
	if got := dev.bindings[s.Binding()]; got.ArrayStride != 48 {
		t.Fatalf("binding layout stride=%d want 48", got.ArrayStride)
	}

	if err := s.Write(context.Background(), 48, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if b := dev.buffers[s.Buffer()]; b[48] != 1 || b[50] != 3 {
		t.Fatalf("bytes not forwarded to device")
	}
	if err := s.Write(context.Background(), 4799, []byte{1, 2}); !errors.Is(err, store.ErrOutOfRange) {
		t.Fatalf("err=%v want ErrOutOfRange", err)
	}

	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.Close(context.Background())
	if len(dev.destroyed) != 2 || dev.destroyed[0] != "binding" || dev.destroyed[1] != "buffer" {
		t.Fatalf("destroyed=%v want [binding buffer]", dev.destroyed)
	}
	if err := s.Write(context.Background(), 0, []byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close err=%v", err)
	}
}

func TestBindingFailureReleasesBuffer(t *testing.T) {
	dev := newFakeDevice()
	dev.bindingErr = errors.New("no vao")
	if _, err := New(Config{Device: dev, Capacity: 10, Layout: layout.SolidColor}); err == nil {
		t.Fatalf("New succeeded without a binding")
	}
	if len(dev.buffers) != 0 {
		t.Fatalf("buffer leaked: %d live", len(dev.buffers))
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Capacity: 1, Layout: layout.SolidColor}); !errors.Is(err, ErrNilDevice) {
		t.Fatalf("err=%v want ErrNilDevice", err)
	}
	if _, err := New(Config{Device: newFakeDevice(), Capacity: 0, Layout: layout.SolidColor}); err == nil {
		t.Fatalf("zero capacity accepted")
	}
	if _, err := New(Config{Device: newFakeDevice(), Capacity: 1}); !errors.Is(err, layout.ErrNoAttributes) {
		t.Fatalf("err=%v want ErrNoAttributes", err)
	}
}
