package icet

import (
	"encoding/binary"

	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/geom"
	"github.com/icet-go/icet/internal/imgfmt"
)

// Rect is an axis-aligned integer rectangle: a tile's screen position,
// a contained viewport, or a sub-region passed to CopyRegion. It is
// shared (via internal/geom) with internal/strategy, which addresses
// tiles with the identical type without importing this package.
type Rect = geom.Rect

// DenseImage is a self-describing fixed-size pixel buffer: a 24-byte
// header (magic, color format, depth format, width, height, actual
// size) followed by the color plane then the depth plane, per spec
// §4.2's dense image and §6's wire layout. Grounded on gogpu-gg's
// Pixmap (width/height plus a flat backing byte slice, bounds-checked
// plane accessors), generalized from an RGBA-only canvas to a
// format-parameterized color+depth buffer.
type DenseImage struct {
	buf  []byte
	desc imgfmt.Descriptor
}

// NewDenseImage allocates and initializes a dense image for desc.
func NewDenseImage(desc imgfmt.Descriptor) *DenseImage {
	return InitDenseImage(make([]byte, imgfmt.DenseBufferSize(desc)), desc)
}

// InitDenseImage stamps a dense image header into buf in place, spec
// §4.2's image_init: no allocation beyond what the caller already
// provided. buf must be at least imgfmt.DenseBufferSize(desc) bytes.
func InitDenseImage(buf []byte, desc imgfmt.Descriptor) *DenseImage {
	need := imgfmt.DenseBufferSize(desc)
	writeImageHeader(buf, imgfmt.DenseMagicBase, desc, need)
	return &DenseImage{buf: buf[:need], desc: desc}
}

// Descriptor returns the image's pixel format and dimensions.
func (d *DenseImage) Descriptor() imgfmt.Descriptor { return d.desc }

// ActualSize returns the header's self-reported size in bytes.
func (d *DenseImage) ActualSize() int { return int(binary.LittleEndian.Uint32(d.buf[20:24])) }

// Color returns the color plane, or nil if desc.Color is ColorNone.
func (d *DenseImage) Color() []byte {
	cb := d.desc.Color.Bytes()
	if cb == 0 {
		return nil
	}
	n := d.desc.NumPixels()
	return d.buf[imgfmt.HeaderSize : imgfmt.HeaderSize+n*cb]
}

// Depth returns the depth plane, or nil if desc.Depth is DepthNone.
func (d *DenseImage) Depth() []byte {
	db := d.desc.Depth.Bytes()
	if db == 0 {
		return nil
	}
	cb := d.desc.Color.Bytes()
	n := d.desc.NumPixels()
	start := imgfmt.HeaderSize + n*cb
	return d.buf[start : start+n*db]
}

// CopyPixels byte-wise copies count pixels (both channels) from src
// starting at pixel srcOff into dst starting at pixel dstOff. Spec
// §4.2's image_copy_pixels; src and dst must share the same color and
// depth formats.
func CopyPixels(src *DenseImage, srcOff int, dst *DenseImage, dstOff, count int) error {
	if src.desc.Color != dst.desc.Color || src.desc.Depth != dst.desc.Depth {
		return newError(InvalidValue, "CopyPixels", ErrFormatMismatch)
	}
	if cb := src.desc.Color.Bytes(); cb > 0 {
		copy(dst.Color()[dstOff*cb:(dstOff+count)*cb], src.Color()[srcOff*cb:(srcOff+count)*cb])
	}
	if db := src.desc.Depth.Bytes(); db > 0 {
		copy(dst.Depth()[dstOff*db:(dstOff+count)*db], src.Depth()[srcOff*db:(srcOff+count)*db])
	}
	return nil
}

// CopyRegion places src (sized srcRect.W x srcRect.H) into dst at
// dstRect. Every destination pixel outside dstRect is first cleared to
// bg, so CopyRegion never leaves a destination byte uninitialized, per
// spec §4.2's image_copy_region invariant — the same guarantee
// gogpu-gg's Pixmap.Clear/FillSpan give a canvas before anything draws
// into it, generalized here to run automatically as part of the copy
// rather than as a separate caller-invoked step.
func CopyRegion(src *DenseImage, srcRect Rect, dst *DenseImage, dstRect Rect, bg codec.Background) error {
	if srcRect.W != dstRect.W || srcRect.H != dstRect.H {
		return newError(InvalidValue, "CopyRegion", ErrRegionSizeMismatch)
	}
	if src.desc.Color != dst.desc.Color || src.desc.Depth != dst.desc.Depth {
		return newError(InvalidValue, "CopyRegion", ErrFormatMismatch)
	}

	cb, db := dst.desc.Color.Bytes(), dst.desc.Depth.Bytes()
	dstColor, dstDepth := dst.Color(), dst.Depth()
	fillBackground(dstColor, dstDepth, cb, db, bg)

	srcColor, srcDepth := src.Color(), src.Depth()
	for row := 0; row < srcRect.H; row++ {
		srcStart := (srcRect.Y+row)*src.desc.Width + srcRect.X
		dstStart := (dstRect.Y+row)*dst.desc.Width + dstRect.X
		if cb > 0 {
			copy(dstColor[dstStart*cb:(dstStart+srcRect.W)*cb], srcColor[srcStart*cb:(srcStart+srcRect.W)*cb])
		}
		if db > 0 {
			copy(dstDepth[dstStart*db:(dstStart+srcRect.W)*db], srcDepth[srcStart*db:(srcStart+srcRect.W)*db])
		}
	}
	return nil
}

func fillBackground(color, depth []byte, cb, db int, bg codec.Background) {
	var n int
	switch {
	case cb > 0:
		n = len(color) / cb
	case db > 0:
		n = len(depth) / db
	}
	for i := 0; i < n; i++ {
		if cb > 0 && bg.Color != nil {
			copy(color[i*cb:(i+1)*cb], bg.Color)
		}
		if db > 0 && bg.Depth != nil {
			copy(depth[i*db:(i+1)*db], bg.Depth)
		}
	}
}

// PackageForSend returns the wire-ready bytes for d: header plus
// payload truncated to the self-reported actual size. Spec §4.2's
// image_package_for_send; for a dense image the actual size always
// equals the full buffer, since nothing is compressed.
func PackageForSend(d *DenseImage) []byte { return d.buf[:d.ActualSize()] }

// UnpackageDenseFromReceive parses a wire buffer produced by
// PackageForSend back into a DenseImage, bit-identical to the source
// image. Spec §4.2/§8 invariant 1's roundtrip requirement.
func UnpackageDenseFromReceive(pkg []byte) (*DenseImage, error) {
	desc, actualSize, err := readImageHeader(pkg)
	if err != nil {
		return nil, err
	}
	buf := append([]byte(nil), pkg[:actualSize]...)
	return &DenseImage{buf: buf, desc: desc}, nil
}

func writeImageHeader(buf []byte, base uint32, desc imgfmt.Descriptor, actualSize int) {
	binary.LittleEndian.PutUint32(buf[0:4], imgfmt.Magic(base, desc))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(desc.Color))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(desc.Depth))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(desc.Width))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(desc.Height))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(actualSize))
}

func readImageHeader(buf []byte) (imgfmt.Descriptor, int, error) {
	if len(buf) < imgfmt.HeaderSize {
		return imgfmt.Descriptor{}, 0, newError(InvalidValue, "readImageHeader", ErrTruncated)
	}
	var desc imgfmt.Descriptor
	desc.Color = imgfmt.ColorFormat(binary.LittleEndian.Uint32(buf[4:8]))
	desc.Depth = imgfmt.DepthFormat(binary.LittleEndian.Uint32(buf[8:12]))
	desc.Width = int(binary.LittleEndian.Uint32(buf[12:16]))
	desc.Height = int(binary.LittleEndian.Uint32(buf[16:20]))
	actualSize := int(binary.LittleEndian.Uint32(buf[20:24]))
	if actualSize > len(buf) {
		return imgfmt.Descriptor{}, 0, newError(InvalidValue, "readImageHeader", ErrTruncated)
	}
	return desc, actualSize, nil
}
