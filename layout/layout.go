// Package layout derives slab strides from vertex buffer layouts.
//
// The slab only cares about the number of bytes per element; the attribute
// list is interpreted by the rendering side and is opaque here.
package layout

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

var (
	ErrNoAttributes  = errors.New("layout: no attributes and no array stride")
	ErrUnknownFormat = errors.New("layout: unknown vertex format")
)

// SolidColor is a position-only vertex; color comes from a uniform.
var SolidColor = gputypes.VertexBufferLayout{
	ArrayStride: 12,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}, // position
	},
}

// Shaded carries everything the lit mesh pipeline reads per vertex.
var Shaded = gputypes.VertexBufferLayout{
	ArrayStride: 48,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
		{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
		{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // uv
		{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3}, // color
	},
}

// FormatSize returns the byte size of one attribute of format f.
func FormatSize(f gputypes.VertexFormat) (uint64, error) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 4, nil
	case gputypes.VertexFormatFloat32x2:
		return 8, nil
	case gputypes.VertexFormatFloat32x3:
		return 12, nil
	case gputypes.VertexFormatFloat32x4:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// Stride returns the bytes per element of l: ArrayStride when set, otherwise
// the packed end of the last attribute. Attributes that run past an explicit
// ArrayStride are rejected.
func Stride(l gputypes.VertexBufferLayout) (int, error) {
	var end uint64
	for i, a := range l.Attributes {
		sz, err := FormatSize(a.Format)
		if err != nil {
			return 0, fmt.Errorf("layout: attribute %d: %w", i, err)
		}
		if e := uint64(a.Offset) + sz; e > end {
			end = e
		}
	}
	stride := uint64(l.ArrayStride)
	switch {
	case stride == 0 && end == 0:
		return 0, ErrNoAttributes
	case stride == 0:
		stride = end
	case end > stride:
		return 0, fmt.Errorf("layout: attributes end at byte %d past array stride %d", end, stride)
	}
	return int(stride), nil
}

// MustStride is like Stride but panics on error. Handy for package-level
// layouts that are known to be valid.
func MustStride(l gputypes.VertexBufferLayout) int {
	s, err := Stride(l)
	if err != nil {
		panic(err)
	}
	return s
}

// ByName returns a copy of the predefined layout called name ("solid" or
// "shaded").
func ByName(name string) (gputypes.VertexBufferLayout, bool) {
	var l gputypes.VertexBufferLayout
	switch name {
	case "solid", "solid-color":
		l = SolidColor
	case "shaded":
		l = Shaded
	default:
		return gputypes.VertexBufferLayout{}, false
	}
	l.Attributes = append([]gputypes.VertexAttribute(nil), l.Attributes...)
	return l, true
}
