package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/icet-go/icet/internal/imgfmt"
)

func descRGBAZ(w, h int) imgfmt.Descriptor {
	return imgfmt.Descriptor{Width: w, Height: h, Color: imgfmt.ColorRGBAUbyte, Depth: imgfmt.DepthFloat}
}

// randomImage builds a dense color/depth pair where each pixel is
// active (depth < FarDepth) with probability activeProb.
func randomImage(rng *rand.Rand, desc imgfmt.Descriptor, activeProb float64) (color, depth []byte) {
	n := desc.NumPixels()
	color = make([]byte, n*desc.Color.Bytes())
	depth = make([]byte, n*desc.Depth.Bytes())
	for i := 0; i < n; i++ {
		d := float32(1.0)
		if rng.Float64() < activeProb {
			d = float32(rng.Float64())
			color[i*4+0] = byte(rng.Intn(256))
			color[i*4+1] = byte(rng.Intn(256))
			color[i*4+2] = byte(rng.Intn(256))
			color[i*4+3] = 255
		}
		putF32(depth[i*4:i*4+4], d)
	}
	return color, depth
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func TestCompressDecompressRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	desc := descRGBAZ(37, 19)
	color, depth := randomImage(rng, desc, 0.4)

	src := NewDenseSource(desc, ModeZBuffer, color, depth)
	sparse := Compress(src)

	bg := NewBackground(desc, 0, 0, 0, 0)
	gotColor := make([]byte, len(color))
	gotDepth := make([]byte, len(depth))
	if err := Decompress(sparse, desc, bg, gotColor, gotDepth); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(gotDepth, depth) {
		t.Fatalf("depth mismatch after roundtrip")
	}
	for i := 0; i < desc.NumPixels(); i++ {
		if IsActive(ModeZBuffer, desc, color[i*4:i*4+4], depth[i*4:i*4+4]) {
			if !bytes.Equal(gotColor[i*4:i*4+4], color[i*4:i*4+4]) {
				t.Fatalf("pixel %d color mismatch: got %v want %v", i, gotColor[i*4:i*4+4], color[i*4:i*4+4])
			}
		}
	}
}

func TestCompressEmptyImageAllInactive(t *testing.T) {
	desc := descRGBAZ(8, 8)
	color := make([]byte, desc.NumPixels()*4)
	depth := make([]byte, desc.NumPixels()*4)
	// Set depth to FarDepth (1.0) everywhere so no pixel is active.
	bg := NewBackground(desc, 0, 0, 0, 0)
	far := bg.Depth
	for i := 0; i < desc.NumPixels(); i++ {
		copy(depth[i*4:i*4+4], far)
	}

	src := NewDenseSource(desc, ModeZBuffer, color, depth)
	sparse := Compress(src)

	out := make([]byte, len(color))
	outDepth := make([]byte, len(depth))
	if err := Decompress(sparse, desc, bg, out, outDepth); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(outDepth, depth) {
		t.Fatalf("expected fully-background depth plane")
	}
}

func TestCompressRunSplitAtMaxSpan(t *testing.T) {
	// A 1-row image wider than MaxRunSpan, entirely inactive, must split
	// into multiple runs rather than overflow the 16-bit count field.
	w := imgfmt.MaxRunSpan + 10
	desc := descRGBAZ(w, 1)
	bg := NewBackground(desc, 0, 0, 0, 0)
	depth := make([]byte, w*4)
	for i := 0; i < w; i++ {
		copy(depth[i*4:i*4+4], bg.Depth)
	}
	color := make([]byte, w*4)

	src := NewDenseSource(desc, ModeZBuffer, color, depth)
	sparse := Compress(src)
	if len(sparse) <= 4 {
		t.Fatalf("expected split into more than one run header, got %d bytes", len(sparse))
	}

	out := make([]byte, w*4)
	outDepth := make([]byte, w*4)
	if err := Decompress(sparse, desc, bg, out, outDepth); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(outDepth, depth) {
		t.Fatalf("depth plane mismatch after split-run roundtrip")
	}
}

func TestCompositeSparseSparseZBufferNearerWins(t *testing.T) {
	desc := descRGBAZ(4, 1)
	frontColor := []byte{255, 0, 0, 255, 0, 0, 0, 0, 255, 0, 0, 255, 0, 0, 0, 0}
	frontDepth := make([]byte, 16)
	putF32(frontDepth[0:4], 0.2)
	putF32(frontDepth[4:8], 1.0)
	putF32(frontDepth[8:12], 0.9)
	putF32(frontDepth[12:16], 1.0)

	backColor := []byte{0, 255, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255, 0, 0, 0, 0}
	backDepth := make([]byte, 16)
	putF32(backDepth[0:4], 0.5)
	putF32(backDepth[4:8], 0.3)
	putF32(backDepth[8:12], 0.1)
	putF32(backDepth[12:16], 1.0)

	front := Compress(NewDenseSource(desc, ModeZBuffer, frontColor, frontDepth))
	back := Compress(NewDenseSource(desc, ModeZBuffer, backColor, backDepth))

	result, err := CompositeSparseSparse(front, back, desc, ModeZBuffer)
	if err != nil {
		t.Fatalf("CompositeSparseSparse: %v", err)
	}

	bg := NewBackground(desc, 0, 0, 0, 0)
	gotColor := make([]byte, 16)
	gotDepth := make([]byte, 16)
	if err := Decompress(result, desc, bg, gotColor, gotDepth); err != nil {
		t.Fatalf("Decompress result: %v", err)
	}

	// Pixel 0: front nearer (0.2 < 0.5) -> red.
	if gotColor[0] != 255 || gotColor[1] != 0 {
		t.Errorf("pixel 0: expected front red, got %v", gotColor[0:4])
	}
	// Pixel 1: only back active -> green.
	if gotColor[4] != 0 || gotColor[5] != 255 {
		t.Errorf("pixel 1: expected back green, got %v", gotColor[4:8])
	}
	// Pixel 2: back nearer (0.1 < 0.9) -> blue.
	if gotColor[10] != 255 {
		t.Errorf("pixel 2: expected back blue, got %v", gotColor[8:12])
	}
	// Pixel 3: neither active -> background.
	if !bytes.Equal(gotColor[12:16], bg.Color) {
		t.Errorf("pixel 3: expected background, got %v", gotColor[12:16])
	}
}

func TestCompositeSparseSparseCommutesInZBufferMode(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	desc := descRGBAZ(6, 6)
	aColor, aDepth := randomImage(rng, desc, 0.5)
	bColor, bDepth := randomImage(rng, desc, 0.5)
	a := Compress(NewDenseSource(desc, ModeZBuffer, aColor, aDepth))
	b := Compress(NewDenseSource(desc, ModeZBuffer, bColor, bDepth))

	ab, err := CompositeSparseSparse(a, b, desc, ModeZBuffer)
	if err != nil {
		t.Fatalf("CompositeSparseSparse(a,b): %v", err)
	}
	ba, err := CompositeSparseSparse(b, a, desc, ModeZBuffer)
	if err != nil {
		t.Fatalf("CompositeSparseSparse(b,a): %v", err)
	}

	bg := NewBackground(desc, 0, 0, 0, 0)
	colorAB := make([]byte, desc.NumPixels()*4)
	depthAB := make([]byte, desc.NumPixels()*4)
	colorBA := make([]byte, desc.NumPixels()*4)
	depthBA := make([]byte, desc.NumPixels()*4)
	if err := Decompress(ab, desc, bg, colorAB, depthAB); err != nil {
		t.Fatalf("Decompress ab: %v", err)
	}
	if err := Decompress(ba, desc, bg, colorBA, depthBA); err != nil {
		t.Fatalf("Decompress ba: %v", err)
	}
	if !bytes.Equal(depthAB, depthBA) {
		t.Fatalf("Z-buffer composite is not commutative on depth")
	}
}

func TestCompositeSparseSparseSizeMismatch(t *testing.T) {
	desc := descRGBAZ(4, 1)
	otherDesc := descRGBAZ(8, 1)
	color := make([]byte, desc.NumPixels()*4)
	depth := make([]byte, desc.NumPixels()*4)
	otherColor := make([]byte, otherDesc.NumPixels()*4)
	otherDepth := make([]byte, otherDesc.NumPixels()*4)

	front := Compress(NewDenseSource(desc, ModeZBuffer, color, depth))
	back := Compress(NewDenseSource(otherDesc, ModeZBuffer, otherColor, otherDepth))

	if _, err := CompositeSparseSparse(front, back, desc, ModeZBuffer); err != ErrSizeMismatch {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestCompositeSparseDenseBlendOver(t *testing.T) {
	desc := imgfmt.Descriptor{Width: 2, Height: 1, Color: imgfmt.ColorRGBAUbyte}
	frontColor := []byte{255, 0, 0, 128, 0, 0, 0, 0}
	front := Compress(NewDenseSource(desc, ModeBlend, frontColor, nil))

	backColor := []byte{0, 0, 255, 255, 0, 255, 0, 200}
	outColor := make([]byte, 8)

	if err := CompositeSparseDense(front, desc, ModeBlend, backColor, nil, outColor, nil); err != nil {
		t.Fatalf("CompositeSparseDense: %v", err)
	}
	// Pixel 1 is inactive in front, so back passes through unchanged.
	if !bytes.Equal(outColor[4:8], backColor[4:8]) {
		t.Errorf("inactive pixel should pass dense value through, got %v want %v", outColor[4:8], backColor[4:8])
	}
	// Pixel 0 blends: result must not equal either pure input.
	if bytes.Equal(outColor[0:4], frontColor[0:4]) || bytes.Equal(outColor[0:4], backColor[0:4]) {
		t.Errorf("expected blended pixel 0, got %v", outColor[0:4])
	}
}
