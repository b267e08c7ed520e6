package tiffingress

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TIFF tag IDs (baseline tags only; GeoTIFF tags are not read here).
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagPredictor       = 317
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagXResolution     = 282
	tagYResolution     = 283
	tagResolutionUnit  = 296
	tagICCProfile      = 34675
)

// TIFF data types.
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
	dtSByte    = 6
	dtUndef    = 7
	dtSShort   = 8
	dtSLong    = 9
	dtFloat    = 11
	dtDouble   = 12
	dtLong8    = 16
)

// ifd is a parsed baseline TIFF Image File Directory: only the tags a
// plain (non-geo) raster ingress path needs.
type ifd struct {
	Width, Height     uint32
	TileWidth         uint32
	TileHeight        uint32
	RowsPerStrip      uint32
	BitsPerSample     []uint16
	SamplesPerPixel   uint16
	Compression       uint16
	Photometric       uint16
	PlanarConfig      uint16
	Predictor         uint16
	StripOffsets      []uint64
	StripByteCounts   []uint64
	TileOffsets       []uint64
	TileByteCounts    []uint64
	XResolution       float64
	YResolution       float64
	HasResolution     bool
	ResolutionUnit    uint16
	ICCProfile        []byte
}

func (d *ifd) isTiled() bool {
	return d.TileWidth > 0 && d.TileHeight > 0
}

type tiffEntry struct {
	Tag      uint16
	DataType uint16
	Count    uint64
	Value    []byte
}

// parseFirstIFD reads the TIFF header and the first Image File Directory.
// Multi-IFD (multi-page/pyramid) TIFFs are out of scope: only the first
// (base) image is ingested.
func parseFirstIFD(r io.ReadSeeker) (ifd, binary.ByteOrder, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ifd{}, nil, fmt.Errorf("tiffingress: reading TIFF header: %w", err)
	}

	var bo binary.ByteOrder
	switch string(hdr[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return ifd{}, nil, fmt.Errorf("tiffingress: bad byte-order mark %q", hdr[0:2])
	}

	magic := bo.Uint16(hdr[2:4])
	if magic != 42 {
		return ifd{}, nil, fmt.Errorf("tiffingress: bad TIFF magic %d (BigTIFF not supported)", magic)
	}
	firstOffset := uint64(bo.Uint32(hdr[4:8]))

	parsed, _, err := parseOneIFD(r, bo, firstOffset)
	if err != nil {
		return ifd{}, nil, fmt.Errorf("tiffingress: parsing IFD at offset %d: %w", firstOffset, err)
	}
	return parsed, bo, nil
}

func parseOneIFD(r io.ReadSeeker, bo binary.ByteOrder, offset uint64) (ifd, uint64, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return ifd{}, 0, err
	}

	var countBuf [2]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return ifd{}, 0, err
	}
	numEntries := bo.Uint16(countBuf[:])

	entries := make([]tiffEntry, numEntries)
	for i := range entries {
		var buf [12]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return ifd{}, 0, err
		}
		entries[i] = parseTiffEntry(buf[:], bo)
	}

	var nextBuf [4]byte
	if _, err := io.ReadFull(r, nextBuf[:]); err != nil {
		return ifd{}, 0, err
	}
	next := uint64(bo.Uint32(nextBuf[:]))

	for i := range entries {
		if err := resolveEntry(r, bo, &entries[i]); err != nil {
			return ifd{}, 0, fmt.Errorf("resolving tag %d: %w", entries[i].Tag, err)
		}
	}

	return buildIFD(entries, bo), next, nil
}

func parseTiffEntry(buf []byte, bo binary.ByteOrder) tiffEntry {
	tag := bo.Uint16(buf[0:2])
	dt := bo.Uint16(buf[2:4])
	count := uint64(bo.Uint32(buf[4:8]))
	value := make([]byte, 4)
	copy(value, buf[8:12])
	return tiffEntry{Tag: tag, DataType: dt, Count: count, Value: value}
}

func dataTypeSize(dt uint16) int {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndef:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtFloat:
		return 4
	case dtRational, dtDouble, dtLong8:
		return 8
	default:
		return 1
	}
}

func resolveEntry(r io.ReadSeeker, bo binary.ByteOrder, e *tiffEntry) error {
	total := int(e.Count) * dataTypeSize(e.DataType)
	if total <= 4 {
		return nil
	}
	dataOffset := uint64(bo.Uint32(e.Value))
	if _, err := r.Seek(int64(dataOffset), io.SeekStart); err != nil {
		return err
	}
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	e.Value = data
	return nil
}

func buildIFD(entries []tiffEntry, bo binary.ByteOrder) ifd {
	var d ifd
	d.SamplesPerPixel = 1
	d.PlanarConfig = 1

	for _, e := range entries {
		switch e.Tag {
		case tagImageWidth:
			d.Width = getUint32(e, bo)
		case tagImageLength:
			d.Height = getUint32(e, bo)
		case tagTileWidth:
			d.TileWidth = getUint32(e, bo)
		case tagTileLength:
			d.TileHeight = getUint32(e, bo)
		case tagRowsPerStrip:
			d.RowsPerStrip = getUint32(e, bo)
		case tagBitsPerSample:
			d.BitsPerSample = getUint16Slice(e, bo)
		case tagSamplesPerPixel:
			d.SamplesPerPixel = getUint16Val(e, bo)
		case tagCompression:
			d.Compression = getUint16Val(e, bo)
		case tagPhotometric:
			d.Photometric = getUint16Val(e, bo)
		case tagPlanarConfig:
			d.PlanarConfig = getUint16Val(e, bo)
		case tagPredictor:
			d.Predictor = getUint16Val(e, bo)
		case tagStripOffsets:
			d.StripOffsets = getUint64Slice(e, bo)
		case tagStripByteCounts:
			d.StripByteCounts = getUint64Slice(e, bo)
		case tagTileOffsets:
			d.TileOffsets = getUint64Slice(e, bo)
		case tagTileByteCounts:
			d.TileByteCounts = getUint64Slice(e, bo)
		case tagXResolution:
			d.XResolution = getRational(e, bo)
			d.HasResolution = true
		case tagYResolution:
			d.YResolution = getRational(e, bo)
		case tagResolutionUnit:
			d.ResolutionUnit = getUint16Val(e, bo)
		case tagICCProfile:
			d.ICCProfile = append([]byte(nil), e.Value...)
		}
	}
	return d
}

func getUint16Val(e tiffEntry, bo binary.ByteOrder) uint16 {
	switch e.DataType {
	case dtShort:
		return bo.Uint16(e.Value)
	case dtLong:
		return uint16(bo.Uint32(e.Value))
	default:
		return uint16(e.Value[0])
	}
}

func getUint32(e tiffEntry, bo binary.ByteOrder) uint32 {
	switch e.DataType {
	case dtShort:
		return uint32(bo.Uint16(e.Value))
	case dtLong:
		return bo.Uint32(e.Value)
	default:
		return uint32(e.Value[0])
	}
}

func getUint16Slice(e tiffEntry, bo binary.ByteOrder) []uint16 {
	n := int(e.Count)
	out := make([]uint16, n)
	if dataTypeSize(e.DataType) == 2 || n > 2 {
		for i := 0; i < n; i++ {
			out[i] = bo.Uint16(e.Value[i*2 : i*2+2])
		}
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = uint16(e.Value[i])
	}
	return out
}

func getUint64Slice(e tiffEntry, bo binary.ByteOrder) []uint64 {
	n := int(e.Count)
	out := make([]uint64, n)
	switch e.DataType {
	case dtLong:
		for i := 0; i < n; i++ {
			out[i] = uint64(bo.Uint32(e.Value[i*4 : i*4+4]))
		}
	case dtLong8:
		for i := 0; i < n; i++ {
			out[i] = bo.Uint64(e.Value[i*8 : i*8+8])
		}
	case dtShort:
		for i := 0; i < n; i++ {
			out[i] = uint64(bo.Uint16(e.Value[i*2 : i*2+2]))
		}
	}
	return out
}

// getRational reads a TIFF RATIONAL (two u32: numerator, denominator) as a
// float64, used for XResolution/YResolution (§6: DPI conversion).
func getRational(e tiffEntry, bo binary.ByteOrder) float64 {
	if len(e.Value) < 8 || e.DataType != dtRational {
		return 0
	}
	num := bo.Uint32(e.Value[0:4])
	den := bo.Uint32(e.Value[4:8])
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
