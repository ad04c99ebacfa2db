// Package linalg provides the small amount of 3D vector/matrix math the
// projection and bounds component (spec §4.4) needs: projecting an
// axis-aligned bounding box's corners through the current view matrices
// to find which screen rectangle and depth range a process's geometry
// touches.
package linalg

// V3 is a 3-component vector.
type V3 [3]float64

// V4 is a homogeneous 4-component vector.
type V4 [4]float64

// M4 is a column-major 4x4 matrix: M4[col][row].
type M4 [4]V4

// Identity returns the 4x4 identity matrix.
func Identity() M4 {
	return M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}}
}

// Mul sets m to contain l ⋅ r (matrix product, l applied after r).
func (m *M4) Mul(l, r *M4) {
	var out M4
	for i := range out {
		for j := range out {
			var sum float64
			for k := range out {
				sum += l[k][j] * r[i][k]
			}
			out[i][j] = sum
		}
	}
	*m = out
}

// MulV4 returns m ⋅ v.
func (m *M4) MulV4(v V4) V4 {
	var out V4
	for i := range out {
		var sum float64
		for j := range out {
			sum += m[j][i] * v[j]
		}
		out[i] = sum
	}
	return out
}

// Homogeneous embeds a 3D point as a homogeneous coordinate (w=1).
func Homogeneous(p V3) V4 {
	return V4{p[0], p[1], p[2], 1}
}

// AABBCorners returns the 8 corners of the axis-aligned bounding box
// spanned by min and max.
func AABBCorners(min, max V3) [8]V3 {
	return [8]V3{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{min[0], max[1], min[2]},
		{max[0], max[1], min[2]},
		{min[0], min[1], max[2]},
		{max[0], min[1], max[2]},
		{min[0], max[1], max[2]},
		{max[0], max[1], max[2]},
	}
}
