package codec

import "github.com/icet-go/icet/internal/imgfmt"

// CompositeSparseSparse composites front over back (both compressed,
// identical dimensions) without decompressing either side, per spec
// §4.3's compressed-to-compressed path. A pixel is active in the result
// when it is active in either input; where both are active the pixels
// are combined with the mode's composite operator, otherwise whichever
// input is active passes through unchanged.
//
// Returns ErrSizeMismatch if the two streams don't carry the same
// number of pixels (they must, since both describe desc, but a
// corrupt or mismatched pair is a caller error worth catching here
// rather than silently misaligning runs).
func CompositeSparseSparse(front, back []byte, desc imgfmt.Descriptor, mode Mode) ([]byte, error) {
	colorBytes := desc.Color.Bytes()
	depthBytes := desc.Depth.Bytes()

	fc := newPixelCursor(front, colorBytes, depthBytes)
	bc := newPixelCursor(back, colorBytes, depthBytes)
	w := newRunWriter(len(front) + len(back))

	target := desc.NumPixels()
	for i := 0; i < target; i++ {
		fActive, fColor, fDepth, fOK := fc.next()
		bActive, bColor, bDepth, bOK := bc.next()
		if !fOK || !bOK {
			return nil, ErrSizeMismatch
		}

		switch {
		case !fActive && !bActive:
			w.Inactive()
		case fActive && !bActive:
			w.Active(fColor, fDepth)
		case !fActive && bActive:
			w.Active(bColor, bDepth)
		default:
			color, depth := compositeBoth(mode, desc, fColor, fDepth, bColor, bDepth)
			w.Active(color, depth)
		}
	}
	if !fc.exhausted() || !bc.exhausted() {
		return nil, ErrSizeMismatch
	}
	return w.Finish(), nil
}

// CompositeSparseDense folds sparse (front, compressed) over dense
// (back, a full colorIn/depthIn pair), writing the combined image into
// colorOut/depthOut. Inactive sparse pixels pass the dense pixel
// through unchanged; active sparse pixels replace or blend with it
// per mode. This is the path a strategy uses once it has reduced a
// subtree down to one sparse image and needs to merge it into the
// caller's dense accumulator (spec §4.3's "subcomposite").
func CompositeSparseDense(front []byte, desc imgfmt.Descriptor, mode Mode, colorIn, depthIn, colorOut, depthOut []byte) error {
	colorBytes := desc.Color.Bytes()
	depthBytes := desc.Depth.Bytes()
	fc := newPixelCursor(front, colorBytes, depthBytes)

	target := desc.NumPixels()
	for i := 0; i < target; i++ {
		fActive, fColor, fDepth, ok := fc.next()
		if !ok {
			return ErrSizeMismatch
		}
		var bColor, bDepth []byte
		if colorBytes > 0 {
			bColor = colorIn[i*colorBytes : (i+1)*colorBytes]
		}
		if depthBytes > 0 {
			bDepth = depthIn[i*depthBytes : (i+1)*depthBytes]
		}

		var color, depth []byte
		if fActive {
			color, depth = compositeBoth(mode, desc, fColor, fDepth, bColor, bDepth)
		} else {
			color, depth = bColor, bDepth
		}
		writePixel(colorOut, depthOut, i, colorBytes, depthBytes, color, depth)
	}
	if !fc.exhausted() {
		return ErrSizeMismatch
	}
	return nil
}

// compositeBoth combines two active pixels (front over back) under
// mode, returning raw wire-format bytes ready to append to a run or
// write into a dense buffer.
func compositeBoth(mode Mode, desc imgfmt.Descriptor, fColor, fDepth, bColor, bDepth []byte) (color, depth []byte) {
	switch mode {
	case ModeZBuffer:
		fd := decodeDepth(fDepth)
		bd := decodeDepth(bDepth)
		if nearerZ(fd, bd) {
			return fColor, fDepth
		}
		return bColor, bDepth
	case ModeBlend:
		return blendOver(desc.Color, fColor, bColor), fDepth
	default:
		return fColor, fDepth
	}
}
