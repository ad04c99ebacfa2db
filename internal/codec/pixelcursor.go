package codec

// pixelCursor walks a compressed run stream one pixel at a time,
// refilling from the next run whenever the current one is exhausted.
// Used by the compressed-to-compressed and compressed-to-dense
// composite operations, which need to line front and back pixels up
// even though their run boundaries rarely coincide.
type pixelCursor struct {
	r                      *runReader
	colorBytes, depthBytes int
	remainInactive         int
	remainActive           int
	activePixels           []byte
	activeOff              int
}

func newPixelCursor(buf []byte, colorBytes, depthBytes int) *pixelCursor {
	return &pixelCursor{r: newRunReader(buf, colorBytes+depthBytes), colorBytes: colorBytes, depthBytes: depthBytes}
}

func (c *pixelCursor) fill() bool {
	for c.remainInactive == 0 && c.remainActive == 0 {
		inactive, active, pixels, ok := c.r.next()
		if !ok {
			return false
		}
		c.remainInactive = inactive
		c.remainActive = active
		c.activePixels = pixels
		c.activeOff = 0
	}
	return true
}

// next returns the next pixel's active flag and channel bytes (nil
// color/depth when the pixel is inactive, or when that channel is
// absent). ok is false once the stream is exhausted.
func (c *pixelCursor) next() (active bool, color, depth []byte, ok bool) {
	if !c.fill() {
		return false, nil, nil, false
	}
	if c.remainInactive > 0 {
		c.remainInactive--
		return false, nil, nil, true
	}
	pixelLen := c.colorBytes + c.depthBytes
	rec := c.activePixels[c.activeOff : c.activeOff+pixelLen]
	c.activeOff += pixelLen
	c.remainActive--
	return true, rec[:c.colorBytes], rec[c.colorBytes:], true
}

// exhausted reports whether the stream has no more pixels at all.
func (c *pixelCursor) exhausted() bool {
	return !c.fill()
}
