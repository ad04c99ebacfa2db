// Package codec implements the sparse image run-length codec: spec §4.3.
// Compression walks a pixel source emitting (inactive, active) run pairs
// plus packed active-pixel records; decompression walks the run stream
// back out to a dense buffer; the composite functions combine two
// compressed streams, or fold one into a dense buffer, without ever
// fully decompressing either side.
//
// runWriter generalizes gogpu-gg's core.AlphaRuns: that type keeps
// parallel run-length/value arrays for one scanline of 8-bit coverage
// and supports random-access insertion (breakRun); this codec only ever
// appends (compression is a single forward pass over the image), so it
// writes a flat byte stream directly and patches a run's active-count
// field once that run closes, rather than keeping a separate run-length
// array.
package codec

// Compress run-length encodes src into a sparse run stream (no header;
// callers that need the full wire format prepend one, see spec §6).
func Compress(src PixelSource) []byte {
	n := src.Len()
	w := newRunWriter(n/4 + 16)

	for i := 0; i < n; i++ {
		if src.Active(i) {
			w.Active(src.Color(i), src.Depth(i))
		} else {
			w.Inactive()
		}
	}
	return w.Finish()
}
