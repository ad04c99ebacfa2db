package statedict

import "testing"

func TestGetSetRoundtrip(t *testing.T) {
	d := New(DefaultSchema())

	if err := d.SetInt(KeyRank, 3); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	got, err := d.GetInt(KeyRank)
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if got != 3 {
		t.Fatalf("GetInt = %d, want 3", got)
	}

	if err := d.SetFloatArray(KeyBackgroundColor, []float32{0, 0, 0, 1}); err != nil {
		t.Fatalf("SetFloatArray: %v", err)
	}
	arr, err := d.GetFloatArray(KeyBackgroundColor)
	if err != nil {
		t.Fatalf("GetFloatArray: %v", err)
	}
	if len(arr) != 4 || arr[3] != 1 {
		t.Fatalf("GetFloatArray = %v, want [0 0 0 1]", arr)
	}
}

func TestBadCastOnWrongAccessor(t *testing.T) {
	d := New(DefaultSchema())
	if _, err := d.GetBool(KeyRank); err != ErrBadCast {
		t.Fatalf("GetBool(KeyRank) = %v, want ErrBadCast", err)
	}
}

func TestUnknownKey(t *testing.T) {
	d := New(map[Key]Kind{KeyRank: KindInt})
	if _, err := d.GetInt(KeyNumProcesses); err != ErrUnknownKey {
		t.Fatalf("GetInt(undeclared) = %v, want ErrUnknownKey", err)
	}
}

func TestDefaultSchemaCoversSpecKeys(t *testing.T) {
	schema := DefaultSchema()
	for _, k := range []Key{
		KeyRank, KeyNumProcesses, KeyBackgroundColor, KeyBackgroundColorWord,
		KeyTileList, KeyDisplayNodes, KeyCompositeMode, KeyCompositeOrder,
		KeyDataReplicationGroup, KeyMagicK, KeyStrategy, KeySingleImageStrategy,
		KeyContainedViewport, KeyNearDepth, KeyFarDepth, KeyContainedTilesMask,
		KeyTileContribCounts, KeyTotalImageCount,
		KeyTimeRender, KeyTimeBufferRead, KeyTimeBufferWrite, KeyTimeCompress,
		KeyTimeCompareBlend, KeyTimeComposite, KeyTimeTotalDraw, KeyBytesSent,
	} {
		if _, ok := schema[k]; !ok {
			t.Errorf("DefaultSchema missing key %v", k)
		}
	}
}
