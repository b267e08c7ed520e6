package cti

import (
	"encoding/binary"
	"io"
	"math"
)

// Decode reads a full raster from in, following the §4.6 decoder pipeline:
// validate header, read the tile index, then for each tile decompress,
// verify CRC, invert RCT if applied, and blit into the output raster. It
// returns the header alongside the raster, per §6's collaborator interface
// decode(path) -> (header, raster) — callers that need both no longer have
// to pair this with a second InfoFile call that reopens the file and
// reparses the same 64 bytes. The trailer's "RES "/"ICC " sections, if
// present, are attached to the returned Raster as a convenience; the
// raster reconstruction itself never depends on them.
func Decode(in io.ReaderAt) (Info, *Raster, error) {
	h, err := readHeaderAt(in)
	if err != nil {
		return Info{}, nil, err
	}
	info, err := infoFromHeader(h)
	if err != nil {
		return Info{}, nil, err
	}

	color := info.Color
	bpp := color.BytesPerPixel()

	n := h.tileCount()
	entries, err := readIndicesAt(in, n)
	if err != nil {
		return Info{}, nil, err
	}

	r := &Raster{
		Width:  int(h.Width),
		Height: int(h.Height),
		Color:  color,
		Data:   make([]byte, int(h.Width)*int(h.Height)*bpp),
	}

	codec := codecFor(info.Compression, 0)
	useRCT := info.ColorTransform && color.IsRGB()

	for i := 0; i < n; i++ {
		e := entries[i]
		payload := make([]byte, e.CompressedSize)
		if e.CompressedSize > 0 {
			if _, err := in.ReadAt(payload, int64(e.Offset)); err != nil {
				return Info{}, nil, wrapErr(KindIo, err, "read tile %d payload", i)
			}
		}

		tile, err := codec.decompress(payload, int(e.OriginalSize))
		if err != nil {
			return Info{}, nil, err
		}

		if got := crc32Of(tile); got != e.CRC32 {
			return Info{}, nil, newErr(KindCrcMismatch, "tile %d: crc32 %08x, index says %08x", i, got, e.CRC32)
		}

		if useRCT {
			if err := rctInverse(color, tile); err != nil {
				return Info{}, nil, err
			}
		}

		if err := blitTile(r, i, int(h.TilesX), int(h.TileSize), tile); err != nil {
			return Info{}, nil, err
		}
	}

	trailerBase := trailerOffset(entries, n)
	records, err := readSectionsAt(in, trailerBase)
	if err != nil {
		return Info{}, nil, err
	}
	for _, rec := range records {
		payload, err := readSectionPayload(in, rec)
		if err != nil {
			return Info{}, nil, err
		}
		switch rec.Tag {
		case sectionTagRES:
			if len(payload) >= 8 {
				r.XDPI = float64(leFloat32(payload[0:4]))
				r.YDPI = float64(leFloat32(payload[4:8]))
				r.HasDPI = true
			}
		case sectionTagICC:
			r.ICC = payload
		}
	}

	return info, r, nil
}

// trailerOffset returns the absolute offset just past the last tile
// payload, i.e. where the section table begins (§3 Invariants).
func trailerOffset(entries []tileIndexEntry, n int) int64 {
	if n == 0 {
		return tilePayloadBase(0)
	}
	last := entries[n-1]
	return int64(last.Offset) + int64(last.CompressedSize)
}

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// Info holds the header fields returned by InfoFile/readInfo (§4.6: "a
// separate 'info' entry point returns only the header", §9 redesign note on
// DumpSections). readInfo reads only the 64-byte header and never touches
// the tile index, tile payloads, or trailer.
type Info struct {
	Width, Height  int
	TileSize       int
	TilesX, TilesY int
	Color          ColorKind
	Compression    Compression
	QualityLevel   uint8
	ColorTransform bool
}

func readInfo(in io.ReaderAt) (Info, error) {
	h, err := readHeaderAt(in)
	if err != nil {
		return Info{}, err
	}
	return infoFromHeader(h)
}

// infoFromHeader builds an Info from an already-parsed header, shared by
// readInfo (header-only reads) and Decode (which needs the same fields
// while it has the header in hand, without a second header parse).
func infoFromHeader(h header) (Info, error) {
	color, err := colorKindFromID(h.ColorType)
	if err != nil {
		return Info{}, err
	}
	compression, err := compressionFromID(h.Compression)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Width:          int(h.Width),
		Height:         int(h.Height),
		TileSize:       int(h.TileSize),
		TilesX:         int(h.TilesX),
		TilesY:         int(h.TilesY),
		Color:          color,
		Compression:    compression,
		QualityLevel:   h.Quality,
		ColorTransform: h.hasRCT(),
	}, nil
}

// Section describes one trailer section as reported by ListSections,
// without its payload (the §9 redesign note: scan the trailer, don't
// decode the raster).
type Section struct {
	Tag  string
	Size int64
}

func readListSections(in io.ReaderAt) ([]Section, error) {
	h, err := readHeaderAt(in)
	if err != nil {
		return nil, err
	}
	n := h.tileCount()
	entries, err := readIndicesAt(in, n)
	if err != nil {
		return nil, err
	}
	records, err := readSectionsAt(in, trailerOffset(entries, n))
	if err != nil {
		return nil, err
	}
	out := make([]Section, len(records))
	for i, rec := range records {
		out[i] = Section{Tag: tagString(rec.Tag), Size: int64(rec.Size)}
	}
	return out, nil
}

func tagString(tag uint32) string {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, tag)
	return string(b)
}
