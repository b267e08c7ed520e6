package cti

import (
	"encoding/binary"
	"io"
)

const (
	headerSize   = 64
	tileIndexSize = 20
	magicBytes   = "CTI1"
	formatVersion = 1

	flagRCTApplied = 1 << 0
)

// header is the 64-byte container header (§3 Container header).
type header struct {
	Version     uint16
	Flags       uint16
	Width       uint32
	Height      uint32
	TileSize    uint32
	TilesX      uint32
	TilesY      uint32
	ColorType   uint8
	Compression uint8
	Quality     uint8
}

func (h header) tileCount() int {
	return int(h.TilesX) * int(h.TilesY)
}

func (h header) hasRCT() bool {
	return h.Flags&flagRCTApplied != 0
}

// marshal serializes h into the fixed 64-byte on-disk layout, little-endian
// throughout, with the 33 reserved trailing bytes left zero.
func (h header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magicBytes)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.Width)
	binary.LittleEndian.PutUint32(buf[12:16], h.Height)
	binary.LittleEndian.PutUint32(buf[16:20], h.TileSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.TilesX)
	binary.LittleEndian.PutUint32(buf[24:28], h.TilesY)
	buf[28] = h.ColorType
	buf[29] = h.Compression
	buf[30] = h.Quality
	// buf[31:64] stays zero: 33 reserved bytes.
	return buf
}

func unmarshalHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, newErr(KindTruncatedStream, "header: got %d bytes, want %d", len(buf), headerSize)
	}
	if string(buf[0:4]) != magicBytes {
		return header{}, newErr(KindBadMagic, "header: magic %q, want %q", buf[0:4], magicBytes)
	}
	h := header{
		Version:     binary.LittleEndian.Uint16(buf[4:6]),
		Flags:       binary.LittleEndian.Uint16(buf[6:8]),
		Width:       binary.LittleEndian.Uint32(buf[8:12]),
		Height:      binary.LittleEndian.Uint32(buf[12:16]),
		TileSize:    binary.LittleEndian.Uint32(buf[16:20]),
		TilesX:      binary.LittleEndian.Uint32(buf[20:24]),
		TilesY:      binary.LittleEndian.Uint32(buf[24:28]),
		ColorType:   buf[28],
		Compression: buf[29],
		Quality:     buf[30],
	}
	if h.Version != formatVersion {
		return header{}, newErr(KindBadVersion, "header: version %d, want %d", h.Version, formatVersion)
	}
	return h, nil
}

// writeHeaderAt writes h at absolute offset 0 of w (§4.4 write_header).
func writeHeaderAt(w io.WriterAt, h header) error {
	if _, err := w.WriteAt(h.marshal(), 0); err != nil {
		return wrapErr(KindIo, err, "write header")
	}
	return nil
}

// readHeaderAt reads and validates the header at absolute offset 0 of r
// (§4.4 read_header: validates magic and, here, version too since no
// caller ever wants an unrecognized version silently accepted).
func readHeaderAt(r io.ReaderAt) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return header{}, newErr(KindTruncatedStream, "header: file shorter than %d bytes", headerSize)
		}
		return header{}, wrapErr(KindIo, err, "read header")
	}
	return unmarshalHeader(buf)
}
