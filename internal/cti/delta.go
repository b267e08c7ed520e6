package cti

// Delta (codec id 3, §4.1). Forward takes a byte-wise difference with 8-bit
// wraparound, then RLE-compresses the result; decode reverses both steps.
type deltaCodec struct{}

func (deltaCodec) compress(src []byte) ([]byte, error) {
	return rleEncode(deltaForward(src)), nil
}

func (deltaCodec) decompress(src []byte, originalSize int) ([]byte, error) {
	diffed, err := rleDecode(src)
	if err != nil {
		return nil, err
	}
	if len(diffed) != originalSize {
		return nil, newErr(KindTruncatedStream, "delta: decoded %d bytes, want %d", len(diffed), originalSize)
	}
	return deltaInverse(diffed), nil
}

func deltaForward(in []byte) []byte {
	out := make([]byte, len(in))
	if len(in) == 0 {
		return out
	}
	out[0] = in[0]
	for i := 1; i < len(in); i++ {
		out[i] = in[i] - in[i-1]
	}
	return out
}

func deltaInverse(in []byte) []byte {
	out := make([]byte, len(in))
	if len(in) == 0 {
		return out
	}
	out[0] = in[0]
	for i := 1; i < len(in); i++ {
		out[i] = out[i-1] + in[i]
	}
	return out
}
