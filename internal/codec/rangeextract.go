package codec

import (
	"encoding/binary"

	"github.com/icet-go/icet/internal/imgfmt"
)

// ExtractRange re-encodes the pixels of sparse in [start, end) as a
// standalone compressed stream covering exactly that many pixels,
// preserving each pixel's active/inactive status exactly (unlike
// decompressing to dense and recompressing, which would have to
// invent an active/inactive decision for background-filled pixels).
// Used by the binary-swap single-image strategy to split a compressed
// image by contiguous pixel range without ever fully decompressing it.
func ExtractRange(sparse []byte, desc imgfmt.Descriptor, start, end int) []byte {
	colorBytes := desc.Color.Bytes()
	depthBytes := desc.Depth.Bytes()
	c := newPixelCursor(sparse, colorBytes, depthBytes)
	w := newRunWriter(end - start)

	for i := 0; i < end; i++ {
		active, color, depth, ok := c.next()
		if !ok {
			break
		}
		if i < start {
			continue
		}
		if active {
			w.Active(color, depth)
		} else {
			w.Inactive()
		}
	}
	return w.Finish()
}

// RangeDescriptor reinterprets a flat w*h pixel range as a 1-row
// descriptor of the given pixel count, so callers that address images
// purely by a flat pixel count (the single-image strategies, and the
// split multi-tile strategy) can run the pixel-count-oriented functions
// in this package over an arbitrary contiguous sub-range without this
// package needing any notion of rows.
func RangeDescriptor(desc imgfmt.Descriptor, count int) imgfmt.Descriptor {
	return imgfmt.Descriptor{Width: count, Height: 1, Color: desc.Color, Depth: desc.Depth}
}

// RangePart is one contiguous, already-compressed slice of a larger
// image, as held by one process after a binary-swap reduction. Data
// nil means the whole Count-pixel range is inactive.
type RangePart struct {
	Data  []byte
	Count int
}

// ConcatRanges joins adjacent range parts, in order, into one
// compressed stream covering their combined pixel range. Run streams
// are self-delimiting sequences of independent run headers, so this
// is a plain concatenation: no run merging across part boundaries is
// needed for the result to decode correctly.
func ConcatRanges(parts []RangePart) []byte {
	total := 0
	for _, p := range parts {
		if p.Data != nil {
			total += len(p.Data)
		} else {
			total += (p.Count/imgfmt.MaxRunSpan + 1) * 4
		}
	}
	buf := make([]byte, 0, total)
	for _, p := range parts {
		if p.Data != nil {
			buf = append(buf, p.Data...)
			continue
		}
		buf = append(buf, inactiveRunBytes(p.Count)...)
	}
	return buf
}

func inactiveRunBytes(count int) []byte {
	var buf []byte
	for count > 0 {
		n := count
		if n > imgfmt.MaxRunSpan {
			n = imgfmt.MaxRunSpan
		}
		var hdr [4]byte
		binary.LittleEndian.PutUint16(hdr[0:], uint16(n))
		buf = append(buf, hdr[:]...)
		count -= n
	}
	return buf
}
