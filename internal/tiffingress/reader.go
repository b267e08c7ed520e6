// Package tiffingress implements the "raster source" collaborator of §6:
// a function that opens a baseline (non-geo) TIFF file and returns a
// cti.Raster plus whatever DPI/ICC metadata the file carries. It is the
// CTI analogue of the teacher's internal/cog package, trimmed of
// GeoTIFF/geo-referencing concerns (tiepoints, pixel scale, GeoKeys, EPSG
// inference) and retargeted at plain grayscale/RGB/RGBA rasters at 8 or
// 16 bits per sample.
package tiffingress

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cti-format/cti/internal/cti"
)

// Baseline TIFF Compression tag values this package understands.
const (
	compNone    = 1
	compLZW     = 5
	compDeflate = 8
	compDeflate2 = 32946
)

// Baseline TIFF PhotometricInterpretation tag values.
const (
	photoWhiteIsZero = 0
	photoBlackIsZero = 1
	photoRGB         = 2
)

// Baseline TIFF ResolutionUnit tag values (§6: converted to dots-per-inch).
const (
	resUnitNone       = 1
	resUnitInch       = 2
	resUnitCentimeter = 3
)

// Load opens path, memory-maps it, and decodes the first Image File
// Directory into a *cti.Raster, matching the collaborator contract of §6
// ("a function (path) -> Raster"). Multi-page and pyramid TIFFs are not
// rejected: only the first (base) image is read and later IFDs are ignored.
func Load(path string) (*cti.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tiffingress: opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("tiffingress: stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("tiffingress: %s: empty file", path)
	}

	data, err := mmapFile(f.Fd(), int(fi.Size()))
	if err != nil {
		// Fall back to a plain read when mmap isn't available (§6's
		// collaborator contract doesn't require mmap, just a Raster).
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tiffingress: reading %s: %w", path, err)
		}
	} else {
		defer munmapFile(data)
	}

	d, bo, err := parseFirstIFD(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tiffingress: %s: %w", path, err)
	}

	color, err := colorKindOf(&d)
	if err != nil {
		return nil, fmt.Errorf("tiffingress: %s: %w", path, err)
	}

	raw, err := assembleRaster(data, &d)
	if err != nil {
		return nil, fmt.Errorf("tiffingress: %s: %w", path, err)
	}

	pixels, err := normalizeByteOrder(raw, color, bo)
	if err != nil {
		return nil, fmt.Errorf("tiffingress: %s: %w", path, err)
	}

	r := &cti.Raster{
		Width:  int(d.Width),
		Height: int(d.Height),
		Color:  color,
		Data:   pixels,
	}
	if d.HasResolution {
		r.XDPI = toDPI(d.XResolution, d.ResolutionUnit)
		r.YDPI = toDPI(d.YResolution, d.ResolutionUnit)
		r.HasDPI = true
	}
	if len(d.ICCProfile) > 0 {
		r.ICC = d.ICCProfile
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("tiffingress: %s: assembled raster failed validation: %w", path, err)
	}
	return r, nil
}

// toDPI converts a TIFF XResolution/YResolution value to dots-per-inch
// per the §6 collaborator contract: ResolutionUnit 2 (inch) passes
// through unchanged; 3 (centimeter) multiplies by 2.54. Unit 1 ("no
// absolute unit") and missing units are treated as already-DPI, matching
// the common convention of image editors that omit the unit tag.
func toDPI(resolution float64, unit uint16) float64 {
	switch unit {
	case resUnitCentimeter:
		return resolution * 2.54
	default:
		return resolution
	}
}

// colorKindOf maps a baseline TIFF's Photometric/SamplesPerPixel/BitsPerSample
// triple onto a cti.ColorKind, rejecting anything CTI cannot represent
// (palette color, CMYK, float samples, non-uniform bit depths).
func colorKindOf(d *ifd) (cti.ColorKind, error) {
	bits := uint16(8)
	if len(d.BitsPerSample) > 0 {
		bits = d.BitsPerSample[0]
	}
	for _, b := range d.BitsPerSample {
		if b != bits {
			return 0, fmt.Errorf("non-uniform bits-per-sample %v is not supported", d.BitsPerSample)
		}
	}

	switch d.Photometric {
	case photoBlackIsZero, photoWhiteIsZero:
		switch bits {
		case 8:
			return cti.ColorL8, nil
		case 16:
			return cti.ColorL16, nil
		}
	case photoRGB:
		switch d.SamplesPerPixel {
		case 3:
			if bits == 8 {
				return cti.ColorRGB8, nil
			}
			if bits == 16 {
				return cti.ColorRGB16, nil
			}
		case 4:
			if bits == 8 {
				return cti.ColorRGBA8, nil
			}
		}
	}
	return 0, fmt.Errorf("unsupported combination: photometric=%d samples/pixel=%d bits/sample=%d",
		d.Photometric, d.SamplesPerPixel, bits)
}

// assembleRaster decompresses every strip or tile of d and copies it into
// a single contiguous, row-major buffer in the TIFF's native byte order
// (not yet normalized to little-endian for 16-bit samples; see
// normalizeByteOrder). Planar (non-chunky) TIFFs are rejected: CTI's
// Raster is always interleaved.
func assembleRaster(data []byte, d *ifd) ([]byte, error) {
	if d.PlanarConfig != 1 {
		return nil, fmt.Errorf("planar configuration %d is not supported (only chunky/interleaved)", d.PlanarConfig)
	}

	bytesPerSample := 1
	if len(d.BitsPerSample) > 0 && d.BitsPerSample[0] == 16 {
		bytesPerSample = 2
	}
	rowBytes := int(d.Width) * int(d.SamplesPerPixel) * bytesPerSample
	out := make([]byte, rowBytes*int(d.Height))

	if d.isTiled() {
		return out, assembleTiles(data, d, out, rowBytes)
	}
	return out, assembleStrips(data, d, out, rowBytes)
}

func assembleStrips(data []byte, d *ifd, out []byte, rowBytes int) error {
	rps := int(d.RowsPerStrip)
	if rps == 0 {
		rps = int(d.Height)
	}
	for s, off := range d.StripOffsets {
		if s >= len(d.StripByteCounts) {
			return fmt.Errorf("strip %d has no byte count", s)
		}
		size := d.StripByteCounts[s]
		if size == 0 {
			continue
		}
		end := off + size
		if end > uint64(len(data)) {
			return fmt.Errorf("strip %d [%d:%d] exceeds file size %d", s, off, end, len(data))
		}
		decoded, err := decompress(data[off:end], d.Compression)
		if err != nil {
			return fmt.Errorf("strip %d: %w", s, err)
		}
		if d.Predictor == 2 {
			undoHorizontalDifferencing(decoded, rowBytes, int(d.SamplesPerPixel), sampleWidth(d))
		}
		startRow := s * rps
		dstOff := startRow * rowBytes
		n := len(decoded)
		if dstOff+n > len(out) {
			n = len(out) - dstOff
		}
		if n > 0 {
			copy(out[dstOff:dstOff+n], decoded[:n])
		}
	}
	return nil
}

func assembleTiles(data []byte, d *ifd, out []byte, rowBytes int) error {
	tilesAcross := (int(d.Width) + int(d.TileWidth) - 1) / int(d.TileWidth)
	tileRowBytes := int(d.TileWidth) * int(d.SamplesPerPixel) * sampleWidth(d)

	for idx, off := range d.TileOffsets {
		if idx >= len(d.TileByteCounts) {
			return fmt.Errorf("tile %d has no byte count", idx)
		}
		size := d.TileByteCounts[idx]
		if size == 0 {
			continue
		}
		end := off + size
		if end > uint64(len(data)) {
			return fmt.Errorf("tile %d [%d:%d] exceeds file size %d", idx, off, end, len(data))
		}
		decoded, err := decompress(data[off:end], d.Compression)
		if err != nil {
			return fmt.Errorf("tile %d: %w", idx, err)
		}
		if d.Predictor == 2 {
			undoHorizontalDifferencing(decoded, tileRowBytes, int(d.SamplesPerPixel), sampleWidth(d))
		}

		tx := idx % tilesAcross
		ty := idx / tilesAcross
		x0 := tx * int(d.TileWidth)
		y0 := ty * int(d.TileHeight)
		tileW := int(d.TileWidth)
		if x0+tileW > int(d.Width) {
			tileW = int(d.Width) - x0
		}
		tileH := int(d.TileHeight)
		if y0+tileH > int(d.Height) {
			tileH = int(d.Height) - y0
		}
		if tileW <= 0 || tileH <= 0 {
			continue
		}
		copyRowBytes := tileW * int(d.SamplesPerPixel) * sampleWidth(d)
		for row := 0; row < tileH; row++ {
			srcOff := row * tileRowBytes
			dstOff := (y0+row)*rowBytes + x0*int(d.SamplesPerPixel)*sampleWidth(d)
			if srcOff+copyRowBytes > len(decoded) || dstOff+copyRowBytes > len(out) {
				continue
			}
			copy(out[dstOff:dstOff+copyRowBytes], decoded[srcOff:srcOff+copyRowBytes])
		}
	}
	return nil
}

func sampleWidth(d *ifd) int {
	if len(d.BitsPerSample) > 0 && d.BitsPerSample[0] == 16 {
		return 2
	}
	return 1
}

// undoHorizontalDifferencing reverses TIFF Predictor=2: each sample after
// the first pixel in a row is stored as its difference from the same
// channel of the previous pixel (samplesPerPixel*bytesPerSample bytes
// earlier). Adapted from the teacher's
// internal/cog/reader.go of the same name, generalized to 16-bit samples.
func undoHorizontalDifferencing(data []byte, rowBytes, samplesPerPixel, bytesPerSample int) {
	stride := samplesPerPixel * bytesPerSample
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		if bytesPerSample == 1 {
			for x := stride; x < len(row); x++ {
				row[x] += row[x-stride]
			}
			continue
		}
		for x := stride; x+1 < len(row); x += bytesPerSample {
			prevLo := int(row[x-stride])
			prevHi := int(row[x-stride+1])
			prev := prevLo | prevHi<<8
			cur := int(row[x]) | int(row[x+1])<<8
			sum := (prev + cur) & 0xFFFF
			row[x] = byte(sum)
			row[x+1] = byte(sum >> 8)
		}
	}
}

func decompress(chunk []byte, compression uint16) ([]byte, error) {
	switch compression {
	case 0, compNone:
		return chunk, nil
	case compLZW:
		return decodeTIFFLZW(chunk)
	case compDeflate, compDeflate2:
		zr, err := zlib.NewReader(bytes.NewReader(chunk))
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unsupported TIFF compression %d", compression)
	}
}

// normalizeByteOrder re-encodes 16-bit samples into little-endian byte
// pairs, matching the on-disk convention CTI itself uses (§1: "endian
// portability is resolved by fixing little-endian on disk") and the byte
// layout cti.rctForward16/rctInverse16 assume. 8-bit color kinds pass
// through unchanged since a single byte has no endianness.
func normalizeByteOrder(data []byte, color cti.ColorKind, bo binary.ByteOrder) ([]byte, error) {
	if color != cti.ColorL16 && color != cti.ColorRGB16 {
		return data, nil
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("16-bit raster has odd byte length %d", len(data))
	}
	out := make([]byte, len(data))
	for i := 0; i+1 < len(data); i += 2 {
		v := bo.Uint16(data[i : i+2])
		out[i] = byte(v)
		out[i+1] = byte(v >> 8)
	}
	return out, nil
}
