package linalg

import "testing"

func TestIdentityMul(t *testing.T) {
	id := Identity()
	var m M4
	m.Mul(&id, &id)
	if m != id {
		t.Fatalf("I*I = %v, want identity", m)
	}
}

func TestMulV4Identity(t *testing.T) {
	id := Identity()
	v := V4{1, 2, 3, 1}
	got := id.MulV4(v)
	if got != v {
		t.Fatalf("I*v = %v, want %v", got, v)
	}
}

func TestAABBCorners(t *testing.T) {
	c := AABBCorners(V3{0, 0, 0}, V3{1, 2, 3})
	if c[0] != (V3{0, 0, 0}) {
		t.Fatalf("corner 0 = %v", c[0])
	}
	if c[7] != (V3{1, 2, 3}) {
		t.Fatalf("corner 7 = %v", c[7])
	}
}

func TestScaleTranslate(t *testing.T) {
	// Build a scale-by-2 matrix and apply it.
	scale := M4{{2}, {0, 2}, {0, 0, 2}, {0, 0, 0, 1}}
	v := Homogeneous(V3{1, 1, 1})
	got := scale.MulV4(v)
	want := V4{2, 2, 2, 1}
	if got != want {
		t.Fatalf("scale*v = %v, want %v", got, want)
	}
}
