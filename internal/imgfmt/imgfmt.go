// Package imgfmt defines the pixel format enums and buffer-sizing
// arithmetic shared by the dense/sparse image containers (spec §4.2,
// "image buffers") and the sparse codec (spec §4.3). Keeping these pure
// and dependency-free lets both the public image types and the internal
// codec agree on byte layout without an import cycle.
package imgfmt

// ColorFormat selects the color channel's storage, or its absence.
type ColorFormat uint8

const (
	ColorNone ColorFormat = iota
	ColorRGBAUbyte
	ColorRGBAFloat
)

// Bytes returns the per-pixel size of the color channel.
func (f ColorFormat) Bytes() int {
	switch f {
	case ColorRGBAUbyte:
		return 4
	case ColorRGBAFloat:
		return 16
	default:
		return 0
	}
}

// DepthFormat selects the depth channel's storage, or its absence.
type DepthFormat uint8

const (
	DepthNone DepthFormat = iota
	DepthFloat
)

// Bytes returns the per-pixel size of the depth channel.
func (f DepthFormat) Bytes() int {
	if f == DepthFloat {
		return 4
	}
	return 0
}

// Descriptor is the (width, height, color format, depth format) tuple
// that both dense and sparse images carry.
type Descriptor struct {
	Width, Height int
	Color         ColorFormat
	Depth         DepthFormat
}

// NumPixels returns Width*Height.
func (d Descriptor) NumPixels() int { return d.Width * d.Height }

// PixelBytes returns the per-pixel record size: color bytes plus depth
// bytes. Spec §6: pixel_record = color_bytes ‖ depth_bytes.
func (d Descriptor) PixelBytes() int { return d.Color.Bytes() + d.Depth.Bytes() }

// Valid reports whether the descriptor has at least one channel present,
// per spec §3's dense-image invariant.
func (d Descriptor) Valid() bool {
	return d.Width >= 0 && d.Height >= 0 && (d.Color != ColorNone || d.Depth != DepthNone)
}

// HeaderSize is the size in bytes of the dense/sparse common header
// (magic, color format, depth format, width, height, actual size), each
// a 4-byte field, per spec §6.
const HeaderSize = 24

// DenseMagicBase and SparseMagicBase are the base magic numbers; Magic
// ORs in colorBit when a color channel is present and depthBit when a
// depth channel is present, per spec §6.
const (
	DenseMagicBase  = 0x004D5000
	SparseMagicBase = 0x004D6000
	colorBit        = 0x1
	depthBit        = 0x2
)

// Magic computes the self-describing magic word for a descriptor.
func Magic(base uint32, d Descriptor) uint32 {
	m := base
	if d.Color != ColorNone {
		m |= colorBit
	}
	if d.Depth != DepthNone {
		m |= depthBit
	}
	return m
}

// DenseBufferSize returns the number of bytes a dense image payload
// (header + color plane + depth plane) occupies for the given
// descriptor. Pure and deterministic per spec §4.2.
func DenseBufferSize(d Descriptor) int {
	return HeaderSize + d.NumPixels()*d.PixelBytes()
}

// MaxRunSpan is the largest inactive or active pixel count a single run
// can encode (a 16-bit unsigned field), per spec §3.
const MaxRunSpan = 65535

// SparseBufferSize returns the worst-case buffer size a sparse image of
// the given descriptor could require: one run per pixel (4 bytes of run
// header per pixel in the worst case) plus every pixel active, plus the
// header. Spec §3: `P + ceil(P/65535)*4 + header` where
// P = pixel_bytes*w*h + 4*w*h (the +4*w*h accounts for a run header per
// pixel in the degenerate worst case).
func SparseBufferSize(d Descriptor) int {
	n := d.NumPixels()
	p := d.PixelBytes()*n + 4*n
	extraRunHeaders := (p + MaxRunSpan - 1) / MaxRunSpan * 4
	return p + extraRunHeaders + HeaderSize
}
