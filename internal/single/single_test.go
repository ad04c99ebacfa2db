package single

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/comm"
	"github.com/icet-go/icet/internal/comm/local"
	"github.com/icet-go/icet/internal/imgfmt"
)

func descRGBAZ(w, h int) imgfmt.Descriptor {
	return imgfmt.Descriptor{Width: w, Height: h, Color: imgfmt.ColorRGBAUbyte, Depth: imgfmt.DepthFloat}
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// randomZImage builds a dense image where each pixel is active
// (depth < FarDepth) with probability activeProb.
func randomZImage(rng *rand.Rand, desc imgfmt.Descriptor) []byte {
	n := desc.NumPixels()
	color := make([]byte, n*4)
	depth := make([]byte, n*4)
	for i := 0; i < n; i++ {
		d := float32(1.0)
		if rng.Float64() < 0.5 {
			d = float32(rng.Float64())
			color[i*4+0] = byte(rng.Intn(256))
			color[i*4+1] = byte(rng.Intn(256))
			color[i*4+2] = byte(rng.Intn(256))
			color[i*4+3] = 255
		}
		putF32(depth[i*4:i*4+4], d)
	}
	src := codec.NewDenseSource(desc, codec.ModeZBuffer, color, depth)
	return codec.Compress(src)
}

// randomBlendImage builds a dense premultiplied-alpha image where each
// pixel carries non-zero alpha with probability activeProb.
func randomBlendImage(rng *rand.Rand, desc imgfmt.Descriptor) []byte {
	n := desc.NumPixels()
	color := make([]byte, n*4)
	depth := make([]byte, n*4)
	for i := 0; i < n; i++ {
		if rng.Float64() < 0.5 {
			a := byte(32 + rng.Intn(224))
			color[i*4+0] = byte(rng.Intn(int(a) + 1))
			color[i*4+1] = byte(rng.Intn(int(a) + 1))
			color[i*4+2] = byte(rng.Intn(int(a) + 1))
			color[i*4+3] = a
		}
	}
	src := codec.NewDenseSource(desc, codec.ModeBlend, color, depth)
	return codec.Compress(src)
}

// linearFold composites images[1:] over images[0] left to right, the
// result any reduction reaches under Z-buffer by commutativity. Under
// blend, 8-bit over truncates, so a different grouping of the same
// ordered images can differ by one unit per channel; see pairwiseFold.
func linearFold(t *testing.T, images [][]byte, desc imgfmt.Descriptor, mode codec.Mode) []byte {
	t.Helper()
	acc := images[0]
	for i := 1; i < len(images); i++ {
		merged, err := codec.CompositeSparseSparse(images[i], acc, desc, mode)
		if err != nil {
			t.Fatalf("reference composite: %v", err)
		}
		acc = merged
	}
	return acc
}

// pairwiseFold composites images in BinaryTree's recursive-doubling
// grouping: each round, the image step places above every multiple of
// 2*step lands on top of it. Relative order is kept; only the grouping
// differs from linearFold.
func pairwiseFold(t *testing.T, images [][]byte, desc imgfmt.Descriptor, mode codec.Mode) []byte {
	t.Helper()
	acc := append([][]byte(nil), images...)
	for step := 1; step < len(acc); step *= 2 {
		for i := 0; i+step < len(acc); i += 2 * step {
			merged, err := codec.CompositeSparseSparse(acc[i+step], acc[i], desc, mode)
			if err != nil {
				t.Fatalf("reference composite: %v", err)
			}
			acc[i] = merged
		}
	}
	return acc[0]
}

// runGroup drives strategy concurrently across a loopback group of
// n processes, each contributing locals[i], and returns Group[0]'s
// result.
func runGroup(t *testing.T, n int, desc imgfmt.Descriptor, mode codec.Mode, locals [][]byte, tag int, strategy Strategy) []byte {
	t.Helper()
	comms := local.NewGroup(n)
	group := make([]int, n)
	for i := range group {
		group[i] = i
	}

	results := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			p := Params{
				Comm:  comms[r],
				Self:  group[r],
				Group: group,
				Desc:  desc,
				Mode:  mode,
				Local: locals[r],
				Tag:   tag,
			}
			res, err := strategy(p)
			results[r] = res
			errs[r] = err
		}(r)
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", r, err)
		}
	}
	for r := 1; r < n; r++ {
		if results[r] != nil {
			t.Fatalf("rank %d expected nil result, got %d bytes", r, len(results[r]))
		}
	}
	return results[0]
}

func TestBinaryTreeMatchesOrderedReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	desc := descRGBAZ(9, 7)
	const n = 5 // deliberately not a power of two

	locals := make([][]byte, n)
	for i := range locals {
		locals[i] = randomBlendImage(rng, desc)
	}

	want := pairwiseFold(t, locals, desc, codec.ModeBlend)
	got := runGroup(t, n, desc, codec.ModeBlend, locals, 100, BinaryTree)

	if !bytes.Equal(got, want) {
		t.Fatalf("BinaryTree result diverges from ordered reference fold")
	}
}

func TestBinarySwapMatchesZBufferReference(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	desc := descRGBAZ(16, 8)
	const n = 4 // power of two

	locals := make([][]byte, n)
	for i := range locals {
		locals[i] = randomZImage(rng, desc)
	}

	want := linearFold(t, locals, desc, codec.ModeZBuffer)
	got := runGroup(t, n, desc, codec.ModeZBuffer, locals, 200, BinarySwap)

	if !bytes.Equal(got, want) {
		t.Fatalf("BinarySwap result diverges from Z-buffer reference fold")
	}
}

func TestBinarySwapRejectsNonPowerOfTwoGroup(t *testing.T) {
	desc := descRGBAZ(4, 4)
	comms := local.NewGroup(3)
	p := Params{Comm: comms[0], Self: 0, Group: []int{0, 1, 2}, Desc: desc, Mode: codec.ModeZBuffer}
	if _, err := BinarySwap(p); err != comm.ErrInvalidOperation {
		t.Fatalf("expected ErrInvalidOperation for group size 3, got %v", err)
	}
}

func TestRadixKMatchesZBufferReferenceForNonPowerOfTwoGroup(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	desc := descRGBAZ(12, 10)
	const n = 6 // not a power of two; factors into {3,2} or {2,3} at k=3

	locals := make([][]byte, n)
	for i := range locals {
		locals[i] = randomZImage(rng, desc)
	}

	want := linearFold(t, locals, desc, codec.ModeZBuffer)
	got := runGroup(t, n, desc, codec.ModeZBuffer, locals, 300, RadixK(3))

	if !bytes.Equal(got, want) {
		t.Fatalf("RadixK result diverges from Z-buffer reference fold")
	}
}

func TestRadixKDegeneratesToBinarySwapAtK2(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	desc := descRGBAZ(8, 8)
	const n = 8

	locals := make([][]byte, n)
	for i := range locals {
		locals[i] = randomZImage(rng, desc)
	}

	bswap := runGroup(t, n, desc, codec.ModeZBuffer, locals, 400, BinarySwap)
	radix := runGroup(t, n, desc, codec.ModeZBuffer, locals, 500, RadixK(2))

	if !bytes.Equal(bswap, radix) {
		t.Fatalf("RadixK(2) diverges from BinarySwap on a power-of-two group")
	}
}

func TestAutomaticDispatchesByModeAndGroupSize(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	desc := descRGBAZ(10, 6)

	blendLocals := make([][]byte, 3)
	for i := range blendLocals {
		blendLocals[i] = randomBlendImage(rng, desc)
	}
	wantBlend := linearFold(t, blendLocals, desc, codec.ModeBlend)
	gotBlend := runGroup(t, 3, desc, codec.ModeBlend, blendLocals, 600, Automatic(4))
	if !bytes.Equal(gotBlend, wantBlend) {
		t.Fatalf("Automatic blend dispatch diverges from ordered reference")
	}

	zLocals := make([][]byte, 5)
	for i := range zLocals {
		zLocals[i] = randomZImage(rng, desc)
	}
	wantZ := linearFold(t, zLocals, desc, codec.ModeZBuffer)
	gotZ := runGroup(t, 5, desc, codec.ModeZBuffer, zLocals, 700, Automatic(3))
	if !bytes.Equal(gotZ, wantZ) {
		t.Fatalf("Automatic Z-buffer dispatch diverges from reference")
	}
}

func TestFactorizeProperties(t *testing.T) {
	for _, k := range []int{2, 3, 4, 8} {
		for n := 1; n <= 64; n++ {
			factors := Factorize(n, k)
			product := 1
			for _, f := range factors {
				if f < 2 {
					t.Fatalf("Factorize(%d,%d): factor %d < 2", n, k, f)
				}
				product *= f
			}
			if n > 1 && product != n {
				t.Fatalf("Factorize(%d,%d) = %v, product %d != %d", n, k, factors, product, n)
			}
			maxFactors := 0
			for p := n; p > 1; p /= 2 {
				maxFactors++
			}
			if len(factors) > maxFactors {
				t.Fatalf("Factorize(%d,%d) = %v has %d factors, want <= %d", n, k, factors, len(factors), maxFactors)
			}
		}
	}
}
