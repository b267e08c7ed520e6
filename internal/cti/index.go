package cti

import (
	"encoding/binary"
	"io"
)

// tileIndexEntry is one fixed 20-byte TileIndex record (§3 TileIndex record).
type tileIndexEntry struct {
	Offset         uint64
	CompressedSize uint32
	OriginalSize   uint32
	CRC32          uint32
}

func (e tileIndexEntry) marshal() []byte {
	buf := make([]byte, tileIndexSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.Offset)
	binary.LittleEndian.PutUint32(buf[8:12], e.CompressedSize)
	binary.LittleEndian.PutUint32(buf[12:16], e.OriginalSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.CRC32)
	return buf
}

func unmarshalTileIndexEntry(buf []byte) tileIndexEntry {
	return tileIndexEntry{
		Offset:         binary.LittleEndian.Uint64(buf[0:8]),
		CompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		OriginalSize:   binary.LittleEndian.Uint32(buf[12:16]),
		CRC32:          binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// indexOffset returns the absolute byte offset of tile index entry i, and
// tilePayloadBase returns the offset where linear tile index 0's payload
// begins, per the §3 invariant indices[0].offset == 64 + 20*N.
func indexOffset(i int) int64 {
	return headerSize + int64(i)*tileIndexSize
}

func tilePayloadBase(n int) int64 {
	return headerSize + int64(n)*tileIndexSize
}

// writeTileIndexAt writes all N tile index records starting at offset 64
// (§4.4 write_tile_index).
func writeTileIndexAt(w io.WriterAt, entries []tileIndexEntry) error {
	buf := make([]byte, len(entries)*tileIndexSize)
	for i, e := range entries {
		copy(buf[i*tileIndexSize:], e.marshal())
	}
	if len(buf) == 0 {
		return nil
	}
	if _, err := w.WriteAt(buf, headerSize); err != nil {
		return wrapErr(KindIo, err, "write tile index")
	}
	return nil
}

// readIndicesAt reads n tile index records starting at offset 64 (§4.4
// read_indices).
func readIndicesAt(r io.ReaderAt, n int) ([]tileIndexEntry, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n*tileIndexSize)
	if _, err := r.ReadAt(buf, headerSize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, newErr(KindTruncatedStream, "tile index: file too short for %d entries", n)
		}
		return nil, wrapErr(KindIo, err, "read tile index")
	}
	entries := make([]tileIndexEntry, n)
	for i := range entries {
		entries[i] = unmarshalTileIndexEntry(buf[i*tileIndexSize:])
	}
	return entries, nil
}
