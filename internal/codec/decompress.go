package codec

import "github.com/icet-go/icet/internal/imgfmt"

// Decompress walks sparse, writing background fill for inactive pixels
// and the stored records for active ones, into colorOut/depthOut (each
// sized desc.NumPixels()*channel-bytes, or nil if the channel is
// absent). Returns ErrCorruptRunStream if the stream's cumulative pixel
// count would exceed desc.NumPixels().
func Decompress(sparse []byte, desc imgfmt.Descriptor, bg Background, colorOut, depthOut []byte) error {
	target := desc.NumPixels()
	colorBytes := desc.Color.Bytes()
	depthBytes := desc.Depth.Bytes()
	r := newRunReader(sparse, colorBytes+depthBytes)

	cursor := 0
	for {
		inactive, active, pixels, ok := r.next()
		if !ok {
			break
		}
		if cursor+inactive+active > target {
			return ErrCorruptRunStream
		}
		for k := 0; k < inactive; k++ {
			writePixel(colorOut, depthOut, cursor, colorBytes, depthBytes, bg.Color, bg.Depth)
			cursor++
		}
		off := 0
		for k := 0; k < active; k++ {
			rec := pixels[off : off+colorBytes+depthBytes]
			writePixel(colorOut, depthOut, cursor, colorBytes, depthBytes, rec[:colorBytes], rec[colorBytes:])
			off += colorBytes + depthBytes
			cursor++
		}
	}
	if cursor < target {
		// Remaining pixels (none encoded, e.g. an empty stream) are
		// background.
		for ; cursor < target; cursor++ {
			writePixel(colorOut, depthOut, cursor, colorBytes, depthBytes, bg.Color, bg.Depth)
		}
	}
	return nil
}

func writePixel(colorOut, depthOut []byte, i, colorBytes, depthBytes int, color, depth []byte) {
	if colorBytes > 0 && colorOut != nil {
		copy(colorOut[i*colorBytes:(i+1)*colorBytes], color)
	}
	if depthBytes > 0 && depthOut != nil {
		copy(depthOut[i*depthBytes:(i+1)*depthBytes], depth)
	}
}
