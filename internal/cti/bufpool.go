package cti

import "sync"

// bufPools maps buffer size -> *sync.Pool of []byte, the byte-slice analogue
// of the teacher's image.RGBA pool in internal/tile/rgbapool.go. In practice
// only one or two distinct tile byte sizes exist per encode run (the regular
// tile size and the narrower/shorter edge tiles), so the map stays tiny.
var bufPools sync.Map

// getBuf returns a zeroed []byte of length n from the pool, or allocates one.
func getBuf(n int) []byte {
	if p, ok := bufPools.Load(n); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			buf := v.([]byte)
			clear(buf)
			return buf
		}
	}
	return make([]byte, n)
}

// putBuf returns a []byte to the pool for reuse.
func putBuf(buf []byte) {
	if buf == nil {
		return
	}
	n := len(buf)
	p, _ := bufPools.LoadOrStore(n, &sync.Pool{})
	p.(*sync.Pool).Put(buf)
}
