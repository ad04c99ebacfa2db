package codec

import (
	"encoding/binary"
	"math"

	"github.com/icet-go/icet/internal/imgfmt"
)

// Mode selects which channel drives the active-pixel test and how two
// active pixels are combined, per spec §3 "composite mode".
type Mode uint8

const (
	// ModeZBuffer treats a pixel as active when its depth is nearer than
	// the far plane; composite keeps the nearer of two active pixels.
	ModeZBuffer Mode = iota
	// ModeBlend treats a pixel as active when its alpha is non-zero;
	// composite applies premultiplied over/under per compositing order.
	ModeBlend
)

// FarDepth is the depth value meaning "background" in Z-buffer mode.
const FarDepth float32 = 1.0

// IsActive reports whether the pixel whose color/depth bytes are given
// counts as active under mode m.
func IsActive(m Mode, desc imgfmt.Descriptor, color, depth []byte) bool {
	switch m {
	case ModeZBuffer:
		if desc.Depth == imgfmt.DepthNone {
			return false
		}
		d := math.Float32frombits(binary.LittleEndian.Uint32(depth))
		return d < FarDepth
	case ModeBlend:
		if desc.Color == imgfmt.ColorNone {
			return false
		}
		return alphaOf(desc.Color, color) != 0
	default:
		return false
	}
}

func alphaOf(cf imgfmt.ColorFormat, color []byte) float32 {
	switch cf {
	case imgfmt.ColorRGBAUbyte:
		return float32(color[3])
	case imgfmt.ColorRGBAFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(color[12:16]))
	default:
		return 0
	}
}
