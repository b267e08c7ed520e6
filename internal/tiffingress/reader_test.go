package tiffingress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cti-format/cti/internal/cti"
)

func leU16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func leU32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// entrySpec describes one synthetic IFD entry: exactly one of inline (used
// when count*typeSize <= 4, per the TIFF spec) or external (written to an
// extra-data area past the IFD, with the entry's 4-byte field patched to
// its absolute offset) must be set.
type entrySpec struct {
	tag, dt  uint16
	count    uint32
	inline   []byte
	external []byte
}

// layoutExtra computes where the extra-data area and the pixel payload
// begin, given only entries' tag/type/count shape — independent of any
// entry's actual content, since TIFF's inline-vs-external decision depends
// only on byte size.
func layoutExtra(entries []entrySpec) (pixelAreaOffset int) {
	ifdSize := 2 + 12*len(entries) + 4
	cursor := 8 + ifdSize
	for _, e := range entries {
		if e.external != nil {
			cursor += len(e.external)
		}
	}
	return cursor
}

func buildTIFF(entries []entrySpec, pixelData []byte) []byte {
	n := len(entries)
	ifdSize := 2 + 12*n + 4
	extraBase := 8 + ifdSize
	offsets := make([]int, n)
	cursor := extraBase
	for i, e := range entries {
		if e.external != nil {
			offsets[i] = cursor
			cursor += len(e.external)
		}
	}

	var buf []byte
	buf = append(buf, 'I', 'I')
	buf = append(buf, leU16(42)...)
	buf = append(buf, leU32(8)...) // first IFD offset
	buf = append(buf, leU16(uint16(n))...)
	for i, e := range entries {
		buf = append(buf, leU16(e.tag)...)
		buf = append(buf, leU16(e.dt)...)
		buf = append(buf, leU32(e.count)...)
		if e.external != nil {
			buf = append(buf, leU32(uint32(offsets[i]))...)
		} else {
			v := make([]byte, 4)
			copy(v, e.inline)
			buf = append(buf, v...)
		}
	}
	buf = append(buf, leU32(0)...) // next IFD
	for _, e := range entries {
		if e.external != nil {
			buf = append(buf, e.external...)
		}
	}
	buf = append(buf, pixelData...)
	return buf
}

func writeTIFF(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.tif")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_StripGrayscale8(t *testing.T) {
	width, height := 4, 3
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i)
	}

	entries := []entrySpec{
		{tag: tagImageWidth, dt: dtLong, count: 1, inline: leU32(uint32(width))},
		{tag: tagImageLength, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagBitsPerSample, dt: dtShort, count: 1, inline: leU16(8)},
		{tag: tagCompression, dt: dtShort, count: 1, inline: leU16(compNone)},
		{tag: tagPhotometric, dt: dtShort, count: 1, inline: leU16(photoBlackIsZero)},
		{tag: tagSamplesPerPixel, dt: dtShort, count: 1, inline: leU16(1)},
		{tag: tagRowsPerStrip, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagStripOffsets, dt: dtLong, count: 1, inline: nil},
		{tag: tagStripByteCounts, dt: dtLong, count: 1, inline: leU32(uint32(len(pixels)))},
	}
	pixelOff := layoutExtra(entries)
	entries[7].inline = leU32(uint32(pixelOff))

	path := writeTIFF(t, buildTIFF(entries, pixels))
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Width != width || r.Height != height || r.Color != cti.ColorL8 {
		t.Fatalf("raster = %dx%d/%v, want %dx%d/L8", r.Width, r.Height, r.Color, width, height)
	}
	if string(r.Data) != string(pixels) {
		t.Errorf("pixel data mismatch: got %v, want %v", r.Data, pixels)
	}
	if r.HasDPI {
		t.Error("expected no DPI metadata")
	}
}

func TestLoad_StripRGB8WithResolution(t *testing.T) {
	width, height := 4, 2
	pixels := make([]byte, width*height*3)
	for i := range pixels {
		pixels[i] = byte(i * 7)
	}

	entries := []entrySpec{
		{tag: tagImageWidth, dt: dtLong, count: 1, inline: leU32(uint32(width))},
		{tag: tagImageLength, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagBitsPerSample, dt: dtShort, count: 3, external: append(append(leU16(8), leU16(8)...), leU16(8)...)},
		{tag: tagCompression, dt: dtShort, count: 1, inline: leU16(compNone)},
		{tag: tagPhotometric, dt: dtShort, count: 1, inline: leU16(photoRGB)},
		{tag: tagSamplesPerPixel, dt: dtShort, count: 1, inline: leU16(3)},
		{tag: tagRowsPerStrip, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagStripOffsets, dt: dtLong, count: 1, inline: nil},
		{tag: tagStripByteCounts, dt: dtLong, count: 1, inline: leU32(uint32(len(pixels)))},
		{tag: tagXResolution, dt: dtRational, count: 1, external: append(leU32(300), leU32(1)...)},
		{tag: tagYResolution, dt: dtRational, count: 1, external: append(leU32(300), leU32(1)...)},
		{tag: tagResolutionUnit, dt: dtShort, count: 1, inline: leU16(resUnitInch)},
	}
	pixelOff := layoutExtra(entries)
	entries[7].inline = leU32(uint32(pixelOff))

	path := writeTIFF(t, buildTIFF(entries, pixels))
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Width != width || r.Height != height || r.Color != cti.ColorRGB8 {
		t.Fatalf("raster = %dx%d/%v, want %dx%d/RGB8", r.Width, r.Height, r.Color, width, height)
	}
	if string(r.Data) != string(pixels) {
		t.Errorf("pixel data mismatch: got %v, want %v", r.Data, pixels)
	}
	if !r.HasDPI || r.XDPI != 300 || r.YDPI != 300 {
		t.Errorf("DPI = (%v,%v,%v), want (true,300,300)", r.HasDPI, r.XDPI, r.YDPI)
	}
}

func TestLoad_TiledRGB8(t *testing.T) {
	imgW, imgH := 8, 3
	tileW, tileH := 4, 3
	tileSize := tileW * tileH * 3
	tile0 := make([]byte, tileSize)
	tile1 := make([]byte, tileSize)
	for i := range tile0 {
		tile0[i] = byte(i)
		tile1[i] = byte(255 - i)
	}
	pixelData := append(append([]byte{}, tile0...), tile1...)

	entries := []entrySpec{
		{tag: tagImageWidth, dt: dtLong, count: 1, inline: leU32(uint32(imgW))},
		{tag: tagImageLength, dt: dtLong, count: 1, inline: leU32(uint32(imgH))},
		{tag: tagTileWidth, dt: dtLong, count: 1, inline: leU32(uint32(tileW))},
		{tag: tagTileLength, dt: dtLong, count: 1, inline: leU32(uint32(tileH))},
		{tag: tagBitsPerSample, dt: dtShort, count: 3, external: append(append(leU16(8), leU16(8)...), leU16(8)...)},
		{tag: tagCompression, dt: dtShort, count: 1, inline: leU16(compNone)},
		{tag: tagPhotometric, dt: dtShort, count: 1, inline: leU16(photoRGB)},
		{tag: tagSamplesPerPixel, dt: dtShort, count: 1, inline: leU16(3)},
		{tag: tagTileOffsets, dt: dtLong, count: 2, external: make([]byte, 8)},
		{tag: tagTileByteCounts, dt: dtLong, count: 2, external: append(leU32(uint32(tileSize)), leU32(uint32(tileSize))...)},
	}
	pixelOff := layoutExtra(entries)
	entries[8].external = append(leU32(uint32(pixelOff)), leU32(uint32(pixelOff+tileSize))...)

	path := writeTIFF(t, buildTIFF(entries, pixelData))
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Width != imgW || r.Height != imgH || r.Color != cti.ColorRGB8 {
		t.Fatalf("raster = %dx%d/%v, want %dx%d/RGB8", r.Width, r.Height, r.Color, imgW, imgH)
	}

	// Tile 0 occupies x in [0,4), tile 1 occupies x in [4,8), both full height.
	rowBytes := imgW * 3
	for row := 0; row < imgH; row++ {
		gotLeft := r.Data[row*rowBytes : row*rowBytes+tileW*3]
		wantLeft := tile0[row*tileW*3 : (row+1)*tileW*3]
		if string(gotLeft) != string(wantLeft) {
			t.Errorf("row %d left half mismatch", row)
		}
		gotRight := r.Data[row*rowBytes+tileW*3 : row*rowBytes+2*tileW*3]
		wantRight := tile1[row*tileW*3 : (row+1)*tileW*3]
		if string(gotRight) != string(wantRight) {
			t.Errorf("row %d right half mismatch", row)
		}
	}
}

func TestLoad_BadMagic(t *testing.T) {
	path := writeTIFF(t, []byte("not a tiff file at all"))
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-TIFF input")
	}
}

func TestLoad_UnsupportedColorCombination(t *testing.T) {
	// Photometric=RGB but SamplesPerPixel=2 is not a combination CTI can
	// represent (neither RGB8/RGB16 nor RGBA8).
	width, height := 2, 2
	pixels := make([]byte, width*height*2)

	entries := []entrySpec{
		{tag: tagImageWidth, dt: dtLong, count: 1, inline: leU32(uint32(width))},
		{tag: tagImageLength, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagBitsPerSample, dt: dtShort, count: 2, inline: append(leU16(8), leU16(8)...)},
		{tag: tagCompression, dt: dtShort, count: 1, inline: leU16(compNone)},
		{tag: tagPhotometric, dt: dtShort, count: 1, inline: leU16(photoRGB)},
		{tag: tagSamplesPerPixel, dt: dtShort, count: 1, inline: leU16(2)},
		{tag: tagRowsPerStrip, dt: dtLong, count: 1, inline: leU32(uint32(height))},
		{tag: tagStripOffsets, dt: dtLong, count: 1, inline: nil},
		{tag: tagStripByteCounts, dt: dtLong, count: 1, inline: leU32(uint32(len(pixels)))},
	}
	pixelOff := layoutExtra(entries)
	entries[7].inline = leU32(uint32(pixelOff))

	path := writeTIFF(t, buildTIFF(entries, pixels))
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported photometric/samples-per-pixel combination")
	}
}

func TestToDPI(t *testing.T) {
	if got := toDPI(300, resUnitInch); got != 300 {
		t.Errorf("toDPI(300, inch) = %v, want 300", got)
	}
	if got := toDPI(100, resUnitCentimeter); got != 254 {
		t.Errorf("toDPI(100, cm) = %v, want 254", got)
	}
	if got := toDPI(72, resUnitNone); got != 72 {
		t.Errorf("toDPI(72, none) = %v, want 72", got)
	}
}
