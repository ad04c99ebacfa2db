package icet

import (
	"math"
	"testing"

	"github.com/icet-go/icet/internal/linalg"
)

func TestFullCoverageSpansGlobalViewport(t *testing.T) {
	gvp := Rect{X: 10, Y: 20, W: 100, H: 50}
	cv := FullCoverage(gvp)
	if got := cv.Rect(); got != gvp {
		t.Fatalf("FullCoverage rect = %+v, want %+v", got, gvp)
	}
	if cv.ZNear != -1 || cv.ZFar != 1 {
		t.Fatalf("FullCoverage depth range = [%v, %v], want [-1, 1]", cv.ZNear, cv.ZFar)
	}
}

func TestProjectBoundsNoVerticesReturnsFullCoverage(t *testing.T) {
	gvp := Rect{X: 0, Y: 0, W: 64, H: 64}
	cv := ProjectBounds(linalg.Identity(), linalg.Identity(), nil, gvp)
	if got := cv.Rect(); got != gvp {
		t.Fatalf("no-bounds ProjectBounds rect = %+v, want %+v (full coverage)", got, gvp)
	}
}

func TestProjectBoundsIdentityProjectionMapsUnitCubeToMiddleHalf(t *testing.T) {
	gvp := Rect{X: 0, Y: 0, W: 200, H: 100}
	// Under the identity projection, clip == (x, y, z, 1), and the
	// clip-to-viewport embed maps clip x/y in [-1, 1] onto the whole
	// viewport. A unit cube centered on the origin should therefore
	// project to exactly the viewport's middle half.
	verts := linalg.AABBCorners(linalg.V3{-0.5, -0.5, -0.5}, linalg.V3{0.5, 0.5, 0.5})
	cv := ProjectBounds(linalg.Identity(), linalg.Identity(), verts[:], gvp)

	want := Rect{X: 50, Y: 25, W: 100, H: 50}
	if got := cv.Rect(); got != want {
		t.Fatalf("ProjectBounds rect = %+v, want %+v", got, want)
	}
	if cv.ZNear != -0.5 || cv.ZFar != 0.5 {
		t.Fatalf("depth range = [%v, %v], want [-0.5, 0.5]", cv.ZNear, cv.ZFar)
	}
}

// behindEyeProjection builds a projection matrix under which a vertex's
// clip-space w equals -z, so a positive-z vertex (behind the eye plane)
// produces w <= 0 and the rest (x, y, z) pass through unchanged.
func behindEyeProjection() linalg.M4 {
	return linalg.M4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, -1},
		{0, 0, 0, 0},
	}
}

// TestProjectBoundsBehindEyeVertexCoversFullViewport exercises spec §9's
// documented w<=0 corner case: a vertex behind the eye plane must not be
// silently divided by a non-positive w, and conservatively forces the
// contained viewport to the whole global viewport with an unbounded
// depth range rather than culling anything.
func TestProjectBoundsBehindEyeVertexCoversFullViewport(t *testing.T) {
	gvp := Rect{X: 0, Y: 0, W: 80, H: 40}
	verts := []linalg.V3{{1, 1, 5}} // z = 5 > 0 => w = -5 <= 0
	cv := ProjectBounds(behindEyeProjection(), linalg.Identity(), verts, gvp)

	if got := cv.Rect(); got != gvp {
		t.Fatalf("behind-eye vertex rect = %+v, want full viewport %+v", got, gvp)
	}
	if !math.IsInf(cv.ZNear, -1) || !math.IsInf(cv.ZFar, 1) {
		t.Fatalf("behind-eye vertex depth range = [%v, %v], want [-Inf, +Inf]", cv.ZNear, cv.ZFar)
	}
}

func TestTileContainedRequiresOverlapAndDepthRange(t *testing.T) {
	cv := ContainedViewport{X: 0, Y: 0, W: 10, H: 10, ZNear: -1, ZFar: 1}

	overlapping := Rect{X: 5, Y: 5, W: 10, H: 10}
	if !TileContained(cv, overlapping) {
		t.Fatalf("expected overlapping tile to be contained")
	}

	disjoint := Rect{X: 20, Y: 20, W: 10, H: 10}
	if TileContained(cv, disjoint) {
		t.Fatalf("expected disjoint tile to be uncontained")
	}

	outOfDepthRange := ContainedViewport{X: 0, Y: 0, W: 10, H: 10, ZNear: 2, ZFar: 3}
	if TileContained(outOfDepthRange, overlapping) {
		t.Fatalf("expected tile outside [-1, 1] depth range to be uncontained")
	}
}
