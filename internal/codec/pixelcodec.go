package codec

import (
	"encoding/binary"
	"math"

	"github.com/icet-go/icet/internal/compose"
	"github.com/icet-go/icet/internal/imgfmt"
)

// decodeDepth reads a little-endian float32 depth value. A nil/absent
// depth channel reads as the far plane, so it never wins a Z-buffer
// comparison.
func decodeDepth(b []byte) float32 {
	if len(b) < 4 {
		return FarDepth
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func nearerZ(front, back float32) bool {
	return compose.NearerZ(front, back)
}

// blendOver composites front over back in the descriptor's color
// format and returns the encoded result bytes.
func blendOver(cf imgfmt.ColorFormat, front, back []byte) []byte {
	switch cf {
	case imgfmt.ColorRGBAUbyte:
		result := compose.OverU8(decodeU8(front), decodeU8(back))
		return encodeU8(result)
	case imgfmt.ColorRGBAFloat:
		result := compose.OverF32(decodeF32(front), decodeF32(back))
		return encodeF32(result)
	default:
		return front
	}
}

func decodeU8(b []byte) compose.RGBAU8 {
	return compose.RGBAU8{R: b[0], G: b[1], B: b[2], A: b[3]}
}

func encodeU8(p compose.RGBAU8) []byte {
	return []byte{p.R, p.G, p.B, p.A}
}

func decodeF32(b []byte) compose.RGBAF32 {
	return compose.RGBAF32{
		R: math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		G: math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		B: math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		A: math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
	}
}

func encodeF32(p compose.RGBAF32) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:4], math.Float32bits(p.R))
	binary.LittleEndian.PutUint32(out[4:8], math.Float32bits(p.G))
	binary.LittleEndian.PutUint32(out[8:12], math.Float32bits(p.B))
	binary.LittleEndian.PutUint32(out[12:16], math.Float32bits(p.A))
	return out
}
