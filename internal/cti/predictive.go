package cti

// Predictive (codec id 4, §4.1). Sequences shorter than 3 bytes are passed
// through unchanged. Otherwise a linear predictor (extrapolating the last
// two samples) is subtracted from each byte from index 2 onward, all
// arithmetic wrapping at 8 bits; the residual is then RLE-compressed.
type predictiveCodec struct{}

func (predictiveCodec) compress(src []byte) ([]byte, error) {
	return rleEncode(predictiveForward(src)), nil
}

func (predictiveCodec) decompress(src []byte, originalSize int) ([]byte, error) {
	residual, err := rleDecode(src)
	if err != nil {
		return nil, err
	}
	if len(residual) != originalSize {
		return nil, newErr(KindTruncatedStream, "predictive: decoded %d bytes, want %d", len(residual), originalSize)
	}
	return predictiveInverse(residual), nil
}

func predictiveForward(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	if len(in) < 3 {
		return out
	}
	out[0] = in[0]
	out[1] = in[1]
	for i := 2; i < len(in); i++ {
		p := in[i-1] + (in[i-1] - in[i-2])
		out[i] = in[i] - p
	}
	return out
}

func predictiveInverse(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	if len(in) < 3 {
		return out
	}
	out[0] = in[0]
	out[1] = in[1]
	for i := 2; i < len(in); i++ {
		p := out[i-1] + (out[i-1] - out[i-2])
		out[i] = in[i] + p
	}
	return out
}
