package compose

import "testing"

func TestOverU8Opaque(t *testing.T) {
	src := RGBAU8{255, 0, 0, 255}
	dst := RGBAU8{0, 255, 0, 255}
	got := OverU8(src, dst)
	if got != src {
		t.Fatalf("opaque src over dst = %v, want %v", got, src)
	}
}

func TestOverU8Transparent(t *testing.T) {
	src := RGBAU8{0, 0, 0, 0}
	dst := RGBAU8{10, 20, 30, 255}
	got := OverU8(src, dst)
	if got != dst {
		t.Fatalf("transparent src over dst = %v, want %v", got, dst)
	}
}

func TestUnderU8IsOverReversed(t *testing.T) {
	a := RGBAU8{255, 0, 0, 128}
	b := RGBAU8{0, 0, 255, 200}
	if UnderU8(a, b) != OverU8(b, a) {
		t.Fatal("UnderU8(a,b) should equal OverU8(b,a)")
	}
}

func TestOverF32Identity(t *testing.T) {
	src := RGBAF32{0, 0, 0, 0}
	dst := RGBAF32{0.1, 0.2, 0.3, 1}
	got := OverF32(src, dst)
	if got != dst {
		t.Fatalf("transparent src over dst = %v, want %v", got, dst)
	}
}

func TestNearerZ(t *testing.T) {
	if !NearerZ(0.1, 0.2) {
		t.Fatal("0.1 should be nearer than 0.2")
	}
	if NearerZ(0.2, 0.2) {
		t.Fatal("ties should not report nearer (destination wins)")
	}
}
