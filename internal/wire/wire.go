package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	kindRef byte = 1

	refLen = 4 + 1 + 1 + 8 + 4 + 4
)

var (
	ErrCorrupt = errors.New("slabcache: corrupt index entry")
	magic4     = [...]byte{'S', 'L', 'A', 'B'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Ref is what a remote or byte-oriented index stores for one caller key:
// the slab record id plus the element count and stride it was inserted with,
// so a reader can reject entries written for a different vertex layout.
type Ref struct {
	ID     uint64
	Size   uint32
	Stride uint32
}

// Ref: magic(4) | ver(1) | kind(1=ref) | id(u64 be) | size(u32 be) | stride(u32 be)
func EncodeRef(r Ref) []byte {
	var buf bytes.Buffer
	buf.Grow(refLen)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindRef)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], r.ID)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], r.Size)
	buf.Write(u4[:])

	binary.BigEndian.PutUint32(u4[:], r.Stride)
	buf.Write(u4[:])

	return buf.Bytes()
}

func DecodeRef(b []byte) (Ref, error) {
	if len(b) != refLen || !hasMagic(b) || b[4] != version || b[5] != kindRef {
		return Ref{}, ErrCorrupt
	}
	off := 6

	id := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	if id == 0 {
		return Ref{}, ErrCorrupt
	}

	size := binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	stride := binary.BigEndian.Uint32(b[off : off+4])
	if size == 0 || stride == 0 {
		return Ref{}, ErrCorrupt
	}

	return Ref{ID: id, Size: size, Stride: stride}, nil
}
