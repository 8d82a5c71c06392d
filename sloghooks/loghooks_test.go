package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/slabcache"
)

func newBuffered(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestSamplingEvictions(t *testing.T) {
	l, buf := newBuffered(slog.LevelDebug)
	h := New(l, Options{EvictedEvery: 3})
	for i := 0; i < 9; i++ {
		h.Evicted("mesh", slabcache.ID(i+1), slabcache.Range{Start: i, End: i + 1}, uint64(i))
	}
	if n := strings.Count(buf.String(), "slabcache.evicted"); n != 3 {
		t.Fatalf("logged %d evictions want 3:\n%s", n, buf.String())
	}
}

func TestRejectLevels(t *testing.T) {
	l, buf := newBuffered(slog.LevelWarn)
	h := New(l, Options{})
	h.InsertRejected("mesh", 20, "oversized") // Info: filtered
	h.InsertRejected("mesh", 0, "misaligned") // Warn
	out := buf.String()
	if strings.Contains(out, "oversized") || !strings.Contains(out, "reason=misaligned") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStoreFailureAndReset(t *testing.T) {
	l, buf := newBuffered(slog.LevelInfo)
	h := New(l, Options{})
	h.StoreWriteFailed("mesh", slabcache.Range{Start: 4, End: 7}, errors.New("device lost"))
	h.Reset("mesh", 12)
	out := buf.String()
	for _, want := range []string{"level=ERROR", "start=4", "end=7", `err="device lost"`, "dropped=12"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.Evicted("mesh", 1, slabcache.Range{}, 0)
	h.InsertRejected("mesh", 1, "empty")
	h.StoreWriteFailed("mesh", slabcache.Range{}, errors.New("x"))
	h.Reset("mesh", 0)
}
