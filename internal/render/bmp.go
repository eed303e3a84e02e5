package render

import (
	"encoding/binary"
	"image"
	"image/color"
)

// encodeBMP1Bit hand-rolls a 1-bit-per-pixel, 2-color, bottom-up BMP
// (BITMAPFILEHEADER + BITMAPINFOHEADER + 2-entry palette + row data) for
// e-ink devices. No maintained Go library
// encodes 1-bit positive-height BMP — image/bmp only decodes, and every
// third-party BMP encoder in the ecosystem targets 24/32-bit color — so
// this is a direct byte-level encoder rather than a dependency (the one
// deliberately stdlib-only piece of the Renderer; see DESIGN.md).
func encodeBMP1Bit(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	stride := (w + 31) / 32 * 4 // row bytes, padded to a 4-byte boundary

	const fileHeaderSize = 14
	const infoHeaderSize = 40
	const paletteSize = 2 * 4
	pixelOffset := fileHeaderSize + infoHeaderSize + paletteSize
	imageSize := stride * h
	fileSize := pixelOffset + imageSize

	buf := make([]byte, fileSize)

	// BITMAPFILEHEADER
	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:], uint32(fileSize))
	binary.LittleEndian.PutUint32(buf[10:], uint32(pixelOffset))

	// BITMAPINFOHEADER
	ih := buf[fileHeaderSize:]
	binary.LittleEndian.PutUint32(ih[0:], infoHeaderSize)
	binary.LittleEndian.PutUint32(ih[4:], uint32(w))
	binary.LittleEndian.PutUint32(ih[8:], uint32(h)) // positive: bottom-up row order
	binary.LittleEndian.PutUint16(ih[12:], 1)        // planes
	binary.LittleEndian.PutUint16(ih[14:], 1)        // bit depth
	binary.LittleEndian.PutUint32(ih[16:], 0)        // BI_RGB, uncompressed
	binary.LittleEndian.PutUint32(ih[20:], uint32(imageSize))
	binary.LittleEndian.PutUint32(ih[32:], 2) // colors used
	binary.LittleEndian.PutUint32(ih[36:], 2) // colors important

	// Palette: index 0 = black, index 1 = white.
	pal := buf[fileHeaderSize+infoHeaderSize:]
	pal[0], pal[1], pal[2], pal[3] = 0x00, 0x00, 0x00, 0x00
	pal[4], pal[5], pal[6], pal[7] = 0xFF, 0xFF, 0xFF, 0x00

	pixels := buf[pixelOffset:]
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y
		rowStart := (h - 1 - y) * stride // bottom-up
		for x := 0; x < w; x++ {
			if isWhitePixel(img.At(bounds.Min.X+x, srcY)) {
				byteIdx := rowStart + x/8
				bitIdx := 7 - uint(x%8)
				pixels[byteIdx] |= 1 << bitIdx
			}
		}
	}

	return buf
}

// isWhitePixel thresholds a pixel to black/white at 50% luminance.
func isWhitePixel(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	lum := (299*r + 587*g + 114*b) / 1000
	return lum >= 0x8000
}
