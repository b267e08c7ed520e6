package cti

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRLEEncode_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{
			name: "100 copies of 0x00",
			in:   bytes.Repeat([]byte{0x00}, 100),
			want: []byte{0xFF, 0x01, 0x64, 0x00},
		},
		{
			name: "three copies below run threshold",
			in:   []byte{0x00, 0x00, 0x00},
			want: []byte{0x00, 0x00, 0x00},
		},
		{
			name: "single 0xFF escapes",
			in:   []byte{0xFF},
			want: []byte{0xFF, 0x00},
		},
		{
			name: "four 0xFF bytes form a run",
			in:   []byte{0xFF, 0xFF, 0xFF, 0xFF},
			want: []byte{0xFF, 0x01, 0x04, 0xFF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rleEncode(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("rleEncode(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRLE_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		n := r.Intn(4096)
		in := make([]byte, n)
		r.Read(in)
		encoded := rleEncode(in)
		got, err := rleDecode(encoded)
		if err != nil {
			t.Fatalf("trial %d: rleDecode: %v", trial, err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("trial %d: round-trip mismatch (n=%d)", trial, n)
		}
	}
}

func TestRLE_RejectsBackrefTag(t *testing.T) {
	_, err := rleDecode([]byte{0xFF, 0x02, 0x00, 0x01, 0x05})
	if err == nil {
		t.Fatal("expected rejection of reserved tag 0x02, got nil error")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != KindCodecFraming {
		t.Fatalf("error = %v, want KindCodecFraming", err)
	}
}

func TestRLE_TruncatedEscape(t *testing.T) {
	_, err := rleDecode([]byte{0xFF})
	if err == nil {
		t.Fatal("expected truncation error")
	}
	if cerr, ok := err.(*Error); !ok || cerr.Kind != KindTruncatedStream {
		t.Fatalf("error = %v, want KindTruncatedStream", err)
	}
}

func TestRLECodec_OriginalSizeMismatch(t *testing.T) {
	c := rleCodec{}
	payload, _ := c.compress([]byte{1, 2, 3})
	if _, err := c.decompress(payload, 99); err == nil {
		t.Fatal("expected error on original size mismatch")
	}
}
