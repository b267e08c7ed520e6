package tiffingress

// TIFF-variant LZW decoder.
//
// TIFF's LZW differs from the GIF/PDF variant Go's compress/lzw implements:
// TIFF increases the code width one code earlier than GIF (as soon as the
// next free code plus one reaches the current width's limit). That mismatch
// produces "invalid code" errors if compress/lzw is pointed at TIFF data,
// so this is a small from-scratch decoder following TIFF 6.0 §13.

import (
	"errors"
	"io"
)

const (
	lzwMaxWidth  = 12
	lzwClearCode = 256
	lzwEOICode   = 257
	lzwFirstCode = 258
)

type lzwTableEntry struct {
	prefix int
	suffix byte
	length int
}

// decodeTIFFLZW decompresses TIFF-style LZW data (MSB-first bit packing).
func decodeTIFFLZW(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	d := &lzwBitReader{src: data}

	table := make([]lzwTableEntry, 4097)
	for i := 0; i < 256; i++ {
		table[i] = lzwTableEntry{prefix: -1, suffix: byte(i), length: 1}
	}

	nextCode := lzwFirstCode
	codeWidth := 9
	var output []byte
	buf := make([]byte, 0, 4096)

	getString := func(code int) []byte {
		entry := &table[code]
		buf = buf[:entry.length]
		idx := entry.length - 1
		for code >= 0 {
			e := &table[code]
			buf[idx] = e.suffix
			idx--
			code = e.prefix
		}
		return buf
	}

	code, err := d.readBits(codeWidth)
	if err != nil {
		return nil, err
	}
	if code != lzwClearCode {
		return nil, errors.New("tiffingress: lzw stream does not begin with a clear code")
	}

	prevCode := -1
	for {
		code, err := d.readBits(codeWidth)
		if err != nil {
			if err == io.ErrUnexpectedEOF {
				return output, nil
			}
			return nil, err
		}
		if code == lzwEOICode {
			return output, nil
		}
		if code == lzwClearCode {
			nextCode = lzwFirstCode
			codeWidth = 9
			prevCode = -1
			continue
		}

		if prevCode == -1 {
			if code >= 256 {
				return nil, errors.New("tiffingress: lzw code after clear is not a literal")
			}
			output = append(output, byte(code))
			prevCode = code
			continue
		}

		var outStr []byte
		switch {
		case code < nextCode:
			outStr = getString(code)
			output = append(output, outStr...)
			if nextCode < 4097 {
				table[nextCode] = lzwTableEntry{prefix: prevCode, suffix: outStr[0], length: table[prevCode].length + 1}
				nextCode++
			}
		case code == nextCode:
			prevStr := getString(prevCode)
			first := prevStr[0]
			output = append(output, prevStr...)
			output = append(output, first)
			if nextCode < 4097 {
				table[nextCode] = lzwTableEntry{prefix: prevCode, suffix: first, length: table[prevCode].length + 1}
				nextCode++
			}
		default:
			return nil, errors.New("tiffingress: lzw code out of range")
		}

		if nextCode+1 >= (1<<codeWidth) && codeWidth < lzwMaxWidth {
			codeWidth++
		}
		prevCode = code
	}
}

type lzwBitReader struct {
	src    []byte
	bitPos int
}

func (d *lzwBitReader) readBits(n int) (int, error) {
	result := 0
	for i := 0; i < n; i++ {
		bytePos := d.bitPos / 8
		bitOff := 7 - (d.bitPos % 8)
		if bytePos >= len(d.src) {
			return 0, io.ErrUnexpectedEOF
		}
		bit := (int(d.src[bytePos]) >> bitOff) & 1
		result = (result << 1) | bit
		d.bitPos++
	}
	return result, nil
}
