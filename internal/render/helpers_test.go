package render

import "image"

// newTestImage builds a w×h NRGBA image from row-major pixel values.
func newTestImage(w, h int, pixels [][4]uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, p := range pixels {
		x, y := i%w, i/w
		off := img.PixOffset(x, y)
		img.Pix[off] = p[0]
		img.Pix[off+1] = p[1]
		img.Pix[off+2] = p[2]
		img.Pix[off+3] = p[3]
	}
	return img
}
