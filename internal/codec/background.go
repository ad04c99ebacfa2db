package codec

import (
	"encoding/binary"
	"math"

	"github.com/icet-go/icet/internal/imgfmt"
)

// Background holds the fill values written into inactive pixels during
// decompression and compressed-to-dense subcomposite: a premultiplied
// background color and the far depth value, encoded in the wire format
// the descriptor's channels use.
type Background struct {
	Color []byte // desc.Color.Bytes() long, or nil
	Depth []byte // desc.Depth.Bytes() long, or nil
}

// NewBackground builds a Background for desc from an RGBA color in
// [0,1] and the far-depth constant.
func NewBackground(desc imgfmt.Descriptor, r, g, b, a float32) Background {
	var bg Background
	switch desc.Color {
	case imgfmt.ColorRGBAUbyte:
		bg.Color = []byte{toU8(r), toU8(g), toU8(b), toU8(a)}
	case imgfmt.ColorRGBAFloat:
		bg.Color = make([]byte, 16)
		binary.LittleEndian.PutUint32(bg.Color[0:], math.Float32bits(r))
		binary.LittleEndian.PutUint32(bg.Color[4:], math.Float32bits(g))
		binary.LittleEndian.PutUint32(bg.Color[8:], math.Float32bits(b))
		binary.LittleEndian.PutUint32(bg.Color[12:], math.Float32bits(a))
	}
	if desc.Depth == imgfmt.DepthFloat {
		bg.Depth = make([]byte, 4)
		binary.LittleEndian.PutUint32(bg.Depth, math.Float32bits(FarDepth))
	}
	return bg
}

func toU8(v float32) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}
