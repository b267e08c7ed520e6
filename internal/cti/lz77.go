package cti

// LZ77 (codec id 2, §4.1). A demonstration sliding-window LZ77 with window
// 4096, minimum match 3, maximum match length 255. Shares RLE's 0xFF-escape
// framing: tag 0x00 is a literal 0xFF, tag 0x01 is an RLE run (LZ77 streams
// must be able to decode RLE runs even though the encoder here never emits
// one), tag 0x02 is a back-reference (dist_hi:u8, dist_lo:u8, len:u8).
const (
	lz77Window   = 4096
	lz77MinMatch = 3
	lz77MaxMatch = 255
)

type lz77Codec struct{}

func (lz77Codec) compress(src []byte) ([]byte, error) {
	return lz77Encode(src), nil
}

func (lz77Codec) decompress(src []byte, originalSize int) ([]byte, error) {
	out, err := lz77Decode(src)
	if err != nil {
		return nil, err
	}
	if len(out) != originalSize {
		return nil, newErr(KindTruncatedStream, "lz77: decoded %d bytes, want %d", len(out), originalSize)
	}
	return out, nil
}

// lz77Encode scans for the longest match >= lz77MinMatch within the last
// lz77Window bytes, preferring the first match that attains the maximum
// length found during the scan. Matches may not overlap the source
// position (j + l < i), a deliberate restriction noted in the Design Notes
// that forbids one-byte-distance repeat encoding; this keeps the reference
// encoder's output byte-identical across implementations that honor it.
func lz77Encode(src []byte) []byte {
	out := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		windowStart := i - lz77Window
		if windowStart < 0 {
			windowStart = 0
		}

		bestLen := 0
		bestDist := 0
		maxLen := len(src) - i
		if maxLen > lz77MaxMatch {
			maxLen = lz77MaxMatch
		}

		for j := windowStart; j < i; j++ {
			l := 0
			for l < maxLen && j+l < i && src[j+l] == src[i+l] {
				l++
			}
			if l >= lz77MinMatch && l > bestLen {
				bestLen = l
				bestDist = i - j
			}
		}

		if bestLen >= lz77MinMatch {
			out = append(out, rleEscape, rleTagBackref, byte(bestDist>>8), byte(bestDist), byte(bestLen))
			i += bestLen
			continue
		}

		b := src[i]
		if b == rleEscape {
			out = append(out, rleEscape, rleTagLit)
		} else {
			out = append(out, b)
		}
		i++
	}
	return out
}

// lz77Decode accepts literal, RLE-run, and back-reference tags. Copies
// proceed byte-by-byte so overlapping references (dist < len) correctly
// replicate bytes.
func lz77Decode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		b := src[i]
		if b != rleEscape {
			out = append(out, b)
			i++
			continue
		}
		if i+1 >= len(src) {
			return nil, newErr(KindTruncatedStream, "lz77: truncated escape at byte %d", i)
		}
		tag := src[i+1]
		switch tag {
		case rleTagLit:
			out = append(out, rleEscape)
			i += 2
		case rleTagRun:
			if i+3 >= len(src) {
				return nil, newErr(KindTruncatedStream, "lz77: truncated run at byte %d", i)
			}
			count := src[i+2]
			value := src[i+3]
			for n := byte(0); n < count; n++ {
				out = append(out, value)
			}
			i += 4
		case rleTagBackref:
			if i+4 >= len(src) {
				return nil, newErr(KindTruncatedStream, "lz77: truncated back-reference at byte %d", i)
			}
			dist := int(src[i+2])<<8 | int(src[i+3])
			length := int(src[i+4])
			if dist <= 0 {
				return nil, newErr(KindCodecFraming, "lz77: zero distance at byte %d", i)
			}
			if length < lz77MinMatch {
				return nil, newErr(KindCodecFraming, "lz77: match length %d below minimum at byte %d", length, i)
			}
			if dist > len(out) {
				return nil, newErr(KindCodecFraming, "lz77: distance %d exceeds decoded length %d at byte %d", dist, len(out), i)
			}
			start := len(out) - dist
			for k := 0; k < length; k++ {
				out = append(out, out[start+k])
			}
			i += 5
		default:
			return nil, newErr(KindCodecFraming, "lz77: unknown tag 0x%02x at byte %d", tag, i)
		}
	}
	return out, nil
}
