package cti

import (
	"math/rand"
	"testing"
)

func TestRCT8_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for trial := 0; trial < 2000; trial++ {
		px := []byte{byte(r.Intn(256)), byte(r.Intn(256)), byte(r.Intn(256))}
		orig := append([]byte(nil), px...)

		rctForward8(px)
		rctInverse8(px)

		if px[0] != orig[0] || px[1] != orig[1] || px[2] != orig[2] {
			t.Fatalf("trial %d: RCT8 round-trip: got %v, want %v", trial, px, orig)
		}
	}
}

func TestRCT16_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for trial := 0; trial < 2000; trial++ {
		px := make([]byte, 6)
		r.Read(px)
		orig := append([]byte(nil), px...)

		rctForward16(px)
		rctInverse16(px)

		for i := range px {
			if px[i] != orig[i] {
				t.Fatalf("trial %d: RCT16 round-trip mismatch at byte %d: got %v, want %v", trial, i, px, orig)
			}
		}
	}
}

func TestRCTForward8_KnownValues(t *testing.T) {
	// R=200, G=100, B=50: Y=(200+200+50)>>2=112, Cb=50-100=-50, Cr=200-100=100.
	px := []byte{200, 100, 50}
	rctForward8(px)
	if px[0] != 112 {
		t.Errorf("Y = %d, want 112", px[0])
	}
	if int8(px[1]) != -50 {
		t.Errorf("Cb = %d, want -50", int8(px[1]))
	}
	if int8(px[2]) != 100 {
		t.Errorf("Cr = %d, want 100", int8(px[2]))
	}
}

func TestRCT_RejectsNonRGBColorKinds(t *testing.T) {
	if err := rctForward(ColorL8, []byte{1}); err == nil {
		t.Fatal("expected error applying RCT to L8")
	}
	if err := rctInverse(ColorRGBA8, []byte{1, 2, 3, 4}); err == nil {
		t.Fatal("expected error applying inverse RCT to RGBA8")
	}
}

func TestRCT8_ClampOnInverse(t *testing.T) {
	// Y=0, Cb=Cr=-128 drives R and B to -64 before clamping; the inverse
	// must clamp to 0 rather than wrap to 192.
	px := []byte{0, 0x80, 0x80} // 0x80 is int8(-128)
	rctInverse8(px)
	if px[0] != 0 {
		t.Errorf("R = %d, want 0 (clamped, not wrapped)", px[0])
	}
	if px[1] != 64 {
		t.Errorf("G = %d, want 64", px[1])
	}
	if px[2] != 0 {
		t.Errorf("B = %d, want 0 (clamped, not wrapped)", px[2])
	}
}
