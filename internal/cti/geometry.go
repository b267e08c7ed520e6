package cti

// tilesAcross returns ceil(n/edge).
func tilesAcross(n, edge int) int {
	return (n + edge - 1) / edge
}

// tileGrid returns tiles_x, tiles_y for a raster of the given dimensions
// tiled at edge length T (§3 Tile grid).
func tileGrid(width, height, tileSize int) (tilesX, tilesY int) {
	return tilesAcross(width, tileSize), tilesAcross(height, tileSize)
}

// tileRect returns the pixel rectangle covered by linear tile index i, per
// the canonical ordering i = ty*tiles_x + tx (§3 Linear tile index).
func tileRect(i, tilesX, width, height, tileSize int) (tx, ty, x0, y0, tileW, tileH int) {
	tx = i % tilesX
	ty = i / tilesX
	x0 = tx * tileSize
	y0 = ty * tileSize
	tileW = tileSize
	if x0+tileW > width {
		tileW = width - x0
	}
	tileH = tileSize
	if y0+tileH > height {
		tileH = height - y0
	}
	return
}

// extractTile copies tile i's pixel rectangle out of raster r into a
// freshly pooled buffer (§4.3). The caller must release the buffer with
// putBuf once it's no longer needed (after compression, not before — the
// compressor reads from it).
func extractTile(r *Raster, i, tilesX, tileSize int) ([]byte, error) {
	bpp := r.Color.BytesPerPixel()
	_, _, x0, y0, tileW, tileH := tileRect(i, tilesX, r.Width, r.Height, tileSize)
	if tileW <= 0 || tileH <= 0 || x0 < 0 || y0 < 0 || x0+tileW > r.Width || y0+tileH > r.Height {
		return nil, newErr(KindIo, "tile %d extract window out of raster bounds", i)
	}

	rowBytes := tileW * bpp
	out := getBuf(tileH * rowBytes)
	srcStride := r.Width * bpp
	for row := 0; row < tileH; row++ {
		srcOff := (y0+row)*srcStride + x0*bpp
		dstOff := row * rowBytes
		copy(out[dstOff:dstOff+rowBytes], r.Data[srcOff:srcOff+rowBytes])
	}
	return out, nil
}

// blitTile copies tile i's decoded bytes back into raster r at its pixel
// rectangle (§4.3).
func blitTile(r *Raster, i, tilesX, tileSize int, data []byte) error {
	bpp := r.Color.BytesPerPixel()
	_, _, x0, y0, tileW, tileH := tileRect(i, tilesX, r.Width, r.Height, tileSize)
	if x0 < 0 || y0 < 0 || x0+tileW > r.Width || y0+tileH > r.Height {
		return newErr(KindIo, "tile %d blit window out of raster bounds", i)
	}

	rowBytes := tileW * bpp
	if len(data) != tileH*rowBytes {
		return newErr(KindIo, "tile %d data length %d does not match %dx%d at %d bpp",
			i, len(data), tileW, tileH, bpp)
	}

	dstStride := r.Width * bpp
	for row := 0; row < tileH; row++ {
		srcOff := row * rowBytes
		dstOff := (y0+row)*dstStride + x0*bpp
		copy(r.Data[dstOff:dstOff+rowBytes], data[srcOff:srcOff+rowBytes])
	}
	return nil
}
