package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestRefRoundTrip(t *testing.T) {
	cases := []Ref{
		{ID: 1, Size: 1, Stride: 1},
		{ID: 42, Size: 36, Stride: 48},
		{ID: math.MaxUint64, Size: math.MaxUint32, Stride: 12},
	}
	for _, tc := range cases {
		b := EncodeRef(tc)
		if len(b) != refLen {
			t.Fatalf("len=%d want %d", len(b), refLen)
		}
		got, err := DecodeRef(b)
		if err != nil {
			t.Fatalf("DecodeRef(%+v): %v", tc, err)
		}
		if got != tc {
			t.Fatalf("got %+v want %+v", got, tc)
		}
	}
}

func TestRefLayout(t *testing.T) {
	b := EncodeRef(Ref{ID: 0x0102030405060708, Size: 9, Stride: 12})
	if !bytes.Equal(b[:4], []byte("SLAB")) || b[4] != version || b[5] != kindRef {
		t.Fatalf("bad header % x", b[:6])
	}
	if binary.BigEndian.Uint64(b[6:14]) != 0x0102030405060708 {
		t.Fatalf("id not big-endian at 6")
	}
	if binary.BigEndian.Uint32(b[14:18]) != 9 || binary.BigEndian.Uint32(b[18:22]) != 12 {
		t.Fatalf("size/stride not big-endian")
	}
}

func TestDecodeRefRejectsCorrupt(t *testing.T) {
	good := EncodeRef(Ref{ID: 7, Size: 3, Stride: 12})
	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}
	cases := map[string][]byte{
		"empty":     nil,
		"short":     good[:refLen-1],
		"long":      append(append([]byte(nil), good...), 0),
		"magic":     mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"version":   mutate(func(b []byte) []byte { b[4] = 9; return b }),
		"kind":      mutate(func(b []byte) []byte { b[5] = 2; return b }),
		"zero id":   EncodeRef(Ref{ID: 0, Size: 3, Stride: 12}),
		"zero size": EncodeRef(Ref{ID: 7, Size: 0, Stride: 12}),
		"no stride": EncodeRef(Ref{ID: 7, Size: 3, Stride: 0}),
	}
	for name, b := range cases {
		if _, err := DecodeRef(b); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("%s: err=%v want ErrCorrupt", name, err)
		}
	}
}
