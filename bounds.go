package icet

import (
	"math"

	"github.com/icet-go/icet/internal/linalg"
)

// ContainedViewport is the screen-space axis-aligned bounding rectangle
// and clip-space depth range a process's geometry projects to, spec
// §4.4's output: contained_viewport plus [znear, zfar].
type ContainedViewport struct {
	X, Y, W, H  float64
	ZNear, ZFar float64
}

// Rect returns the integer rectangle a caller would intersect against
// tile geometry, rounding outward so no covered pixel is dropped.
func (cv ContainedViewport) Rect() Rect {
	x0 := int(math.Floor(cv.X))
	y0 := int(math.Floor(cv.Y))
	x1 := int(math.Ceil(cv.X + cv.W))
	y1 := int(math.Ceil(cv.Y + cv.H))
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// FullCoverage returns the ContainedViewport spec §4.4 specifies for a
// process with no bounding geometry set: every tile is contained, so
// the viewport covers the whole global viewport and the depth range
// covers the entire canonical clip volume.
func FullCoverage(globalViewport Rect) ContainedViewport {
	return ContainedViewport{
		X: float64(globalViewport.X), Y: float64(globalViewport.Y),
		W: float64(globalViewport.W), H: float64(globalViewport.H),
		ZNear: -1, ZFar: 1,
	}
}

// ProjectBounds implements spec §4.4's projection algorithm: every
// vertex in verts is projected through proj*modelview plus the
// clip-to-viewport embedding V (x' = 0.5*(clip_x+1)*gvp_w + gvp_x, and
// the analogous transform for y), accumulating a screen-space AABB and
// a clip-space depth range, then clipped to globalViewport.
//
// A vertex with w <= 0 lies behind or on the eye plane, where the
// ordinary perspective divide (x/w, y/w) is meaningless; spec §9 flags
// this as a corner case the implementation must resolve deliberately
// rather than silently dividing by a non-positive w. This follows the
// conservative resolution: such a vertex is treated as covering the
// entire global viewport in x and y, and its z extends the depth range
// to both -inf and +inf, so a shape with any part behind the eye never
// has tiles incorrectly culled from it.
func ProjectBounds(proj, modelview linalg.M4, verts []linalg.V3, globalViewport Rect) ContainedViewport {
	var m linalg.M4
	m.Mul(&proj, &modelview)

	gvpX, gvpY := float64(globalViewport.X), float64(globalViewport.Y)
	gvpW, gvpH := float64(globalViewport.W), float64(globalViewport.H)

	xmin, ymin, zmin := math.Inf(1), math.Inf(1), math.Inf(1)
	xmax, ymax, zmax := math.Inf(-1), math.Inf(-1), math.Inf(-1)

	for _, v := range verts {
		clip := m.MulV4(linalg.Homogeneous(v))
		if clip[3] <= 0 {
			xmin, xmax = gvpX, gvpX+gvpW
			ymin, ymax = gvpY, gvpY+gvpH
			zmin, zmax = math.Inf(-1), math.Inf(1)
			continue
		}
		x := 0.5*(clip[0]/clip[3]+1)*gvpW + gvpX
		y := 0.5*(clip[1]/clip[3]+1)*gvpH + gvpY
		z := clip[2] / clip[3]
		if x < xmin {
			xmin = x
		}
		if x > xmax {
			xmax = x
		}
		if y < ymin {
			ymin = y
		}
		if y > ymax {
			ymax = y
		}
		if z < zmin {
			zmin = z
		}
		if z > zmax {
			zmax = z
		}
	}

	if len(verts) == 0 {
		return FullCoverage(globalViewport)
	}

	xmin = math.Max(xmin, gvpX)
	ymin = math.Max(ymin, gvpY)
	xmax = math.Min(xmax, gvpX+gvpW)
	ymax = math.Min(ymax, gvpY+gvpH)

	return ContainedViewport{
		X: xmin, Y: ymin,
		W: math.Max(0, xmax-xmin), H: math.Max(0, ymax-ymin),
		ZNear: zmin, ZFar: zmax,
	}
}

// TileContained reports whether tile lies at least partly within cv,
// per spec §4.4: the tile's rectangle must intersect the contained
// viewport, and the depth range must overlap the canonical clip volume
// [-1, 1].
func TileContained(cv ContainedViewport, tile Rect) bool {
	cx0, cy0 := cv.X, cv.Y
	cx1, cy1 := cv.X+cv.W, cv.Y+cv.H
	tx0, ty0 := float64(tile.X), float64(tile.Y)
	tx1, ty1 := tx0+float64(tile.W), ty0+float64(tile.H)

	intersects := cx0 < tx1 && tx0 < cx1 && cy0 < ty1 && ty0 < cy1
	return intersects && cv.ZNear <= 1 && cv.ZFar >= -1
}
