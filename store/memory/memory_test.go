package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/unkn0wn-root/slabcache/store"
)

func TestWriteAndReadBack(t *testing.T) {
	s, err := New(6)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(context.Background(), 3, []byte{7, 8, 9}); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	n, err := s.ReadAt(buf, 2)
	if n != 4 || err != nil || buf[1] != 7 || buf[3] != 9 {
		t.Fatalf("ReadAt=%d,%v buf=%v", n, err, buf)
	}
	if n, err := s.ReadAt(buf, 4); n != 2 || err != io.EOF {
		t.Fatalf("short ReadAt=%d,%v want 2, EOF", n, err)
	}
}

func TestWriteOutOfRange(t *testing.T) {
	s, _ := New(4)
	if err := s.Write(context.Background(), 3, []byte{1, 2}); !errors.Is(err, store.ErrOutOfRange) {
		t.Fatalf("err=%v want ErrOutOfRange", err)
	}
	if _, err := New(0); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("New(0) err=%v", err)
	}
}
