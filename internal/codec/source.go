package codec

import "github.com/icet-go/icet/internal/imgfmt"

// PixelSource abstracts over a dense image (or a sub-rectangle of a
// larger one, with padding) so the run-writer in compress.go doesn't
// need to know which case it's in. Index i ranges over [0, Len()).
type PixelSource interface {
	Len() int
	Active(i int) bool
	// Color and Depth return the pixel's channel bytes, or nil if the
	// channel is absent. The returned slice must not be retained past
	// the next call.
	Color(i int) []byte
	Depth(i int) []byte
}

// denseSource is the plain case: a dense image's color/depth planes in
// full, no padding, no offset.
type denseSource struct {
	desc        imgfmt.Descriptor
	mode        Mode
	color       []byte
	depth       []byte
	colorBytes  int
	depthBytes  int
}

// NewDenseSource builds a PixelSource over a whole dense image.
func NewDenseSource(desc imgfmt.Descriptor, mode Mode, color, depth []byte) PixelSource {
	return &denseSource{
		desc:       desc,
		mode:       mode,
		color:      color,
		depth:      depth,
		colorBytes: desc.Color.Bytes(),
		depthBytes: desc.Depth.Bytes(),
	}
}

func (s *denseSource) Len() int { return s.desc.NumPixels() }

func (s *denseSource) Color(i int) []byte {
	if s.colorBytes == 0 {
		return nil
	}
	return s.color[i*s.colorBytes : (i+1)*s.colorBytes]
}

func (s *denseSource) Depth(i int) []byte {
	if s.depthBytes == 0 {
		return nil
	}
	return s.depth[i*s.depthBytes : (i+1)*s.depthBytes]
}

func (s *denseSource) Active(i int) bool {
	return IsActive(s.mode, s.desc, s.Color(i), s.Depth(i))
}

// NewOffsetSource returns a source that compresses a contiguous sub-range [offset, offset+count)
// of a larger dense image, per spec §4.3's "offset + pixel-count mode".
func NewOffsetSource(desc imgfmt.Descriptor, mode Mode, color, depth []byte, offset, count int) PixelSource {
	colorBytes := desc.Color.Bytes()
	depthBytes := desc.Depth.Bytes()
	var c, d []byte
	if colorBytes > 0 {
		c = color[offset*colorBytes : (offset+count)*colorBytes]
	}
	if depthBytes > 0 {
		d = depth[offset*depthBytes : (offset+count)*depthBytes]
	}
	sub := desc
	sub.Width, sub.Height = count, 1
	return NewDenseSource(sub, mode, c, d)
}

// Padding describes how a dense sub-rectangle sits inside a larger tile:
// space_{bottom,top,left,right} inactive pixels surround the real data,
// and full_{width,height} give the outer rectangle's dimensions. Spec
// §4.3's padding mode: the compressor treats padding as inactive pixels
// without touching dense memory for them.
type Padding struct {
	Top, Bottom, Left, Right int
	FullWidth, FullHeight    int
}

// paddedSource maps a full_width x full_height logical rectangle onto an
// inner dense image surrounded by inactive padding.
type paddedSource struct {
	inner   PixelSource
	pad     Padding
	innerW  int
}

// NewPaddedSource wraps inner (a dense image of pad.FullWidth -
// pad.Left - pad.Right by pad.FullHeight - pad.Top - pad.Bottom pixels)
// with inactive padding to the full outer rectangle.
func NewPaddedSource(inner PixelSource, innerWidth int, pad Padding) PixelSource {
	return &paddedSource{inner: inner, pad: pad, innerW: innerWidth}
}

func (s *paddedSource) Len() int { return s.pad.FullWidth * s.pad.FullHeight }

func (s *paddedSource) innerIndex(i int) (idx int, ok bool) {
	x := i % s.pad.FullWidth
	y := i / s.pad.FullWidth
	if y < s.pad.Top || x < s.pad.Left {
		return 0, false
	}
	ix := x - s.pad.Left
	iy := y - s.pad.Top
	if ix >= s.innerW {
		return 0, false
	}
	innerHeight := s.inner.Len() / s.innerW
	if iy >= innerHeight {
		return 0, false
	}
	return iy*s.innerW + ix, true
}

func (s *paddedSource) Active(i int) bool {
	idx, ok := s.innerIndex(i)
	if !ok {
		return false
	}
	return s.inner.Active(idx)
}

func (s *paddedSource) Color(i int) []byte {
	idx, ok := s.innerIndex(i)
	if !ok {
		return nil
	}
	return s.inner.Color(idx)
}

func (s *paddedSource) Depth(i int) []byte {
	idx, ok := s.innerIndex(i)
	if !ok {
		return nil
	}
	return s.inner.Depth(idx)
}
