package cti

// RLE (codec id 1, §4.1). Escape byte is 0xFF. A literal byte b != 0xFF is
// emitted as itself. 0xFF is followed by a tag byte: 0x00 means a literal
// 0xFF; 0x01 means a run (count:u8, value:u8); 0x02 is reserved in RLE and
// must be rejected on decode.
const (
	rleEscape    = 0xFF
	rleTagLit    = 0x00
	rleTagRun    = 0x01
	rleTagBackref = 0x02 // reserved for LZ77; rejected here
)

// minRunLength is the encoder's threshold for emitting a run instead of
// literals. Decoders don't enforce a minimum, but the encoder must respect
// this bound so encoded output is byte-for-byte reproducible across
// implementations (§4.1).
const minRunLength = 4

type rleCodec struct{}

func (rleCodec) compress(src []byte) ([]byte, error) {
	return rleEncode(src), nil
}

func (rleCodec) decompress(src []byte, originalSize int) ([]byte, error) {
	out, err := rleDecode(src)
	if err != nil {
		return nil, err
	}
	if len(out) != originalSize {
		return nil, newErr(KindTruncatedStream, "rle: decoded %d bytes, want %d", len(out), originalSize)
	}
	return out, nil
}

// rleEncode greedily scans src, emitting a run when the next equal-byte
// run (capped at 255) is >= minRunLength, and an escaped literal otherwise.
func rleEncode(src []byte) []byte {
	out := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		b := src[i]
		runLen := 1
		for i+runLen < len(src) && src[i+runLen] == b && runLen < 255 {
			runLen++
		}
		if runLen >= minRunLength {
			out = append(out, rleEscape, rleTagRun, byte(runLen), b)
			i += runLen
			continue
		}
		if b == rleEscape {
			out = append(out, rleEscape, rleTagLit)
		} else {
			out = append(out, b)
		}
		i++
	}
	return out
}

// rleDecode reverses rleEncode, and also accepts any stream satisfying the
// same framing rules (the decoder does not enforce the encoder's minimum
// run length).
func rleDecode(src []byte) ([]byte, error) {
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
			return nil, newErr(KindTruncatedStream, "rle: truncated escape at byte %d", i)
		}
		tag := src[i+1]
		switch tag {
		case rleTagLit:
			out = append(out, rleEscape)
			i += 2
		case rleTagRun:
			if i+3 >= len(src) {
				return nil, newErr(KindTruncatedStream, "rle: truncated run at byte %d", i)
			}
			count := src[i+2]
			value := src[i+3]
			for n := byte(0); n < count; n++ {
				out = append(out, value)
			}
			i += 4
		default:
			return nil, newErr(KindCodecFraming, "rle: unknown or reserved tag 0x%02x at byte %d", tag, i)
		}
	}
	return out, nil
}
