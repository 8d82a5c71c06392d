//go:build unix

package mmap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestAnonymousMapping(t *testing.T) {
	s, err := New(Config{Size: 4096})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	if err := s.Write(context.Background(), 100, []byte("vertex")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 6)
	if _, err := s.ReadAt(buf, 100); err != nil || string(buf) != "vertex" {
		t.Fatalf("ReadAt=%q,%v", buf, err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync on anonymous mapping: %v", err)
	}
}

func TestFileMappingPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slab.bin")
	s, err := New(Config{Size: 64, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(context.Background(), 8, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Write(context.Background(), 0, []byte{1}); err != ErrClosed {
		t.Fatalf("Write after Close err=%v want ErrClosed", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 64 || !bytes.Equal(raw[8:12], []byte{1, 2, 3, 4}) {
		t.Fatalf("file len=%d bytes=%v", len(raw), raw[8:12])
	}

	// a differently sized file is refused unless Truncate is set
	if _, err := New(Config{Size: 128, Path: path}); err == nil {
		t.Fatalf("size mismatch accepted")
	}
	s2, err := New(Config{Size: 128, Path: path, Truncate: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close(context.Background())
	if s2.Size() != 128 {
		t.Fatalf("Size=%d want 128", s2.Size())
	}
}
