package cti

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// Lz4 (codec id 11, §4.1). Uses the block API rather than the LZ4 frame
// format: the payload is a little-endian u32 uncompressed size followed by
// one raw LZ4 block, per the "size-prepended framed variant" the spec
// requires. github.com/pierrec/lz4/v4 is the de facto standard Go LZ4
// library; no repo in the retrieved pack imports an LZ4 encoder, so this is
// an out-of-pack ecosystem dependency (see DESIGN.md).
//
// A single store-flag byte follows the size prefix: when the LZ4 block
// does not come out smaller than the input (or CompressBlock reports n=0),
// the input is kept verbatim rather than expanded; the flag tells
// decompress which path to take without guessing from length alone.
const (
	lz4StoredRaw        = 0
	lz4StoredCompressed = 1
)

type lz4Codec struct{}

func (lz4Codec) compress(src []byte) ([]byte, error) {
	var c lz4.Compressor
	block := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, block)
	if err != nil {
		return nil, wrapErr(KindLibraryDecode, err, "lz4: compress")
	}

	out := make([]byte, 5, 5+max(n, len(src)))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(src)))
	if len(src) > 0 && (n == 0 || n >= len(src)) {
		out[4] = lz4StoredRaw
		out = append(out, src...)
	} else {
		out[4] = lz4StoredCompressed
		out = append(out, block[:n]...)
	}
	return out, nil
}

func (lz4Codec) decompress(src []byte, originalSize int) ([]byte, error) {
	if len(src) < 5 {
		return nil, newErr(KindTruncatedStream, "lz4: payload shorter than the 5-byte header")
	}
	size := int(binary.LittleEndian.Uint32(src[:4]))
	if size != originalSize {
		return nil, newErr(KindTruncatedStream, "lz4: prefix declares %d bytes, index says %d", size, originalSize)
	}
	flag := src[4]
	block := src[5:]

	if flag == lz4StoredRaw {
		if len(block) != size {
			return nil, newErr(KindTruncatedStream, "lz4: stored block length %d, want %d", len(block), size)
		}
		out := make([]byte, size)
		copy(out, block)
		return out, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(block, out)
	if err != nil {
		return nil, wrapErr(KindLibraryDecode, err, "lz4: decompress")
	}
	if n != size {
		return nil, newErr(KindTruncatedStream, "lz4: decompressed %d bytes, want %d", n, size)
	}
	return out, nil
}
