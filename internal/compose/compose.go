// Package compose implements the pixel-level composite operators that
// spec §4.3 specifies: premultiplied-alpha over/under for blend mode, and
// nearer-wins for Z-buffer mode. The fixed-point integer arithmetic is
// adapted from the Porter-Duff operators in gogpu-gg's internal/blend
// package, narrowed to the two operators (over, under) this engine uses
// and changed from round-to-nearest to the truncating rounding spec §4.3
// calls for ("rounded toward zero").
package compose

// RGBAU8 is a premultiplied-alpha RGBA pixel with 8-bit channels.
type RGBAU8 struct{ R, G, B, A uint8 }

// RGBAF32 is a premultiplied-alpha RGBA pixel with float32 channels.
type RGBAF32 struct{ R, G, B, A float32 }

// mulDiv255 multiplies a*b and truncates the division by 255, matching
// spec §4.3's "rounded toward zero" over formula.
func mulDiv255(a, b uint8) uint8 {
	return uint8((uint16(a) * uint16(b)) / 255)
}

func addClamp255(a, b uint8) uint8 {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

// OverU8 composites src over dst (src's premultiplied alpha wins):
// result = src + dst*(1-src.a).
func OverU8(src, dst RGBAU8) RGBAU8 {
	inv := 255 - src.A
	return RGBAU8{
		R: addClamp255(src.R, mulDiv255(dst.R, inv)),
		G: addClamp255(src.G, mulDiv255(dst.G, inv)),
		B: addClamp255(src.B, mulDiv255(dst.B, inv)),
		A: addClamp255(src.A, mulDiv255(dst.A, inv)),
	}
}

// UnderU8 composites src under dst: result = dst + src*(1-dst.a).
// This is OverU8 with the operand roles swapped.
func UnderU8(src, dst RGBAU8) RGBAU8 {
	return OverU8(dst, src)
}

// OverF32 is the floating-point analogue of OverU8, with alpha in [0,1].
func OverF32(src, dst RGBAF32) RGBAF32 {
	inv := 1 - src.A
	return RGBAF32{
		R: src.R + dst.R*inv,
		G: src.G + dst.G*inv,
		B: src.B + dst.B*inv,
		A: src.A + dst.A*inv,
	}
}

// UnderF32 is the floating-point analogue of UnderU8.
func UnderF32(src, dst RGBAF32) RGBAF32 {
	return OverF32(dst, src)
}

// NearerZ reports whether src's depth is strictly nearer than dst's,
// meaning src should win the Z-buffer composite. Ties keep the
// destination per spec §4.3.
func NearerZ(srcDepth, dstDepth float32) bool {
	return srcDepth < dstDepth
}
