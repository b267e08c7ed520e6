package cti

import "testing"

func TestColorKind_BytesPerPixel(t *testing.T) {
	cases := []struct {
		c    ColorKind
		want int
	}{
		{ColorL8, 1}, {ColorL16, 2}, {ColorRGB8, 3}, {ColorRGBA8, 4}, {ColorRGB16, 6},
	}
	for _, tc := range cases {
		if got := tc.c.BytesPerPixel(); got != tc.want {
			t.Errorf("%v.BytesPerPixel() = %d, want %d", tc.c, got, tc.want)
		}
	}
	if got := ColorKind(99).BytesPerPixel(); got != 0 {
		t.Errorf("unknown color kind BytesPerPixel() = %d, want 0", got)
	}
}

func TestColorKind_IsRGB(t *testing.T) {
	for _, c := range []ColorKind{ColorRGB8, ColorRGB16} {
		if !c.IsRGB() {
			t.Errorf("%v.IsRGB() = false, want true", c)
		}
	}
	for _, c := range []ColorKind{ColorL8, ColorL16, ColorRGBA8} {
		if c.IsRGB() {
			t.Errorf("%v.IsRGB() = true, want false", c)
		}
	}
}

func TestColorKind_IDRoundTrip(t *testing.T) {
	for _, c := range []ColorKind{ColorL8, ColorL16, ColorRGB8, ColorRGBA8, ColorRGB16} {
		id, err := c.id()
		if err != nil {
			t.Fatalf("%v.id(): %v", c, err)
		}
		got, err := colorKindFromID(id)
		if err != nil {
			t.Fatalf("colorKindFromID(%d): %v", id, err)
		}
		if got != c {
			t.Errorf("round-trip: got %v, want %v", got, c)
		}
	}
}

func TestColorKindFromID_Unknown(t *testing.T) {
	if _, err := colorKindFromID(255); err == nil {
		t.Fatal("expected error for unknown color_type id")
	}
}

func TestRaster_Validate(t *testing.T) {
	r := &Raster{Width: 4, Height: 3, Color: ColorRGB8, Data: make([]byte, 4*3*3)}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	short := &Raster{Width: 4, Height: 3, Color: ColorRGB8, Data: make([]byte, 10)}
	if err := short.Validate(); err == nil {
		t.Fatal("expected error for undersized data")
	}

	unknown := &Raster{Width: 1, Height: 1, Color: ColorKind(200), Data: make([]byte, 1)}
	if err := unknown.Validate(); err == nil {
		t.Fatal("expected error for unsupported color kind")
	}
}
