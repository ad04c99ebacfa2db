// Package testimage provides small helpers this module's tests use to
// turn a color plane into a standard image.Image and compare rendered
// results against a reference, using golang.org/x/image/draw for the
// scaling the standard library's image/draw does not provide (only
// draw.Draw's unscaled Over/Src).
package testimage

import (
	"image"

	"golang.org/x/image/draw"
)

// FromRGBA8 wraps a tightly packed RGBA8 buffer (as DenseImage.Color()
// returns for an RGBA-ubyte descriptor) as a standard image.Image,
// without copying.
func FromRGBA8(buf []byte, width, height int) *image.RGBA {
	return &image.RGBA{Pix: buf, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
}

// Scale resizes src into an image of the given size using
// high-quality interpolation, for comparing a composited tile against
// a reference image rendered at a different resolution.
func Scale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// MaxChannelDiff returns the largest per-channel absolute difference
// between a and b (255 if their bounds differ), for asserting a
// result is close to a reference within resampling error rather than
// bit-identical.
func MaxChannelDiff(a, b *image.RGBA) int {
	if a.Bounds() != b.Bounds() {
		return 255
	}
	max := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
