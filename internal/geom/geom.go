// Package geom defines the small integer-rectangle type tiles, global
// viewports, and contribution geometry are expressed in (spec §3, §4.4,
// §4.5, §4.7). It exists as its own package, independent of both the
// root icet package and internal/strategy, so the two can share one
// rectangle type without an import cycle: the root package re-exports
// it as icet.Rect, and internal/strategy addresses tiles with it
// directly.
package geom

// Rect is an axis-aligned integer rectangle: a tile's screen position,
// a contained viewport, or a strip/sub-region of one.
type Rect struct{ X, Y, W, H int }

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// Area returns W*H.
func (r Rect) Area() int { return r.W * r.H }

// SplitHorizontal divides r into n horizontal strips of equal height
// (the last strip absorbs any remainder), top to bottom. Used by the
// split multi-tile strategy (spec §4.7) to divide a tile image among a
// group's members, and by data replication (spec §4.7) to divide a
// contained viewport among a replication group.
func (r Rect) SplitHorizontal(n int) []Rect {
	if n <= 0 {
		return nil
	}
	out := make([]Rect, n)
	y := r.Y
	for i := 0; i < n; i++ {
		h := r.H / n
		if i == n-1 {
			h = r.Y + r.H - y
		}
		out[i] = Rect{X: r.X, Y: y, W: r.W, H: h}
		y += h
	}
	return out
}

// BisectLongerAxis splits r in half along whichever of its two axes is
// longer, returning the two halves. Used by data replication (spec
// §4.7) to recursively divide a contained viewport among a replication
// group whose size is not large enough to give every member a whole
// tile.
func (r Rect) BisectLongerAxis() (Rect, Rect) {
	if r.W >= r.H {
		left := r.W / 2
		return Rect{X: r.X, Y: r.Y, W: left, H: r.H},
			Rect{X: r.X + left, Y: r.Y, W: r.W - left, H: r.H}
	}
	top := r.H / 2
	return Rect{X: r.X, Y: r.Y, W: r.W, H: top},
		Rect{X: r.X, Y: r.Y + top, W: r.W, H: r.H - top}
}
