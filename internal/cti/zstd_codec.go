package cti

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd (codec id 10, §4.1). Wraps klauspost/compress/zstd, the pack's own
// general-purpose compressor (github.com/brawer/wikidata-qrank depends on
// github.com/klauspost/compress). Level is the standard zstd integer scale
// (1..15); EncoderLevelFromZstd maps it onto klauspost's internal speed
// tiers, which is exactly what that helper exists for.
type zstdCodec struct {
	level int
}

func (z zstdCodec) compress(src []byte) ([]byte, error) {
	level := z.level
	if level <= 0 {
		level = 6
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, wrapErr(KindLibraryDecode, err, "zstd: creating encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func (zstdCodec) decompress(src []byte, originalSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, wrapErr(KindLibraryDecode, err, "zstd: creating decoder")
	}
	defer dec.Close()

	out, err := dec.DecodeAll(src, make([]byte, 0, originalSize))
	if err != nil {
		return nil, wrapErr(KindLibraryDecode, err, "zstd: decode")
	}
	if len(out) != originalSize {
		return nil, newErr(KindTruncatedStream, "zstd: decoded %d bytes, want %d", len(out), originalSize)
	}
	return out, nil
}
