package render

import "image"

// Texture wraps an NRGBA pixel buffer for mesh mapping. RepeatX is the
// horizontal wrap repeat factor: sampling multiplies U by RepeatX and
// wraps, so a texture covering 120 degrees of longitude tiles three
// times around a full globe.
type Texture struct {
	img      *image.NRGBA
	RepeatX  float64
	released bool
}

// NewTexture wraps an image with a repeat factor of 1.
func NewTexture(img *image.NRGBA) *Texture {
	return &Texture{img: img, RepeatX: 1}
}

// Image returns the backing pixels, or nil after Release.
func (t *Texture) Image() *image.NRGBA {
	if t == nil {
		return nil
	}
	return t.img
}

// Release drops the backing buffer. It stands in for freeing a GPU
// handle; a texture must be released before being replaced.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	t.img = nil
	t.released = true
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool {
	return t != nil && t.released
}

// Sample performs bilinear filtering with UV wrapping, applying the
// horizontal repeat factor. Accesses the pixel slice directly since
// this sits inside the rasterizer hot path.
func (t *Texture) Sample(u, v float64) (r, g, b, a uint8) {
	tex := t.img
	if tex == nil {
		return 0, 0, 0, 0
	}
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	u *= t.RepeatX

	// Wrap UVs
	u = u - float64(int(u))
	if u < 0 {
		u += 1.0
	}
	v = v - float64(int(v))
	if v < 0 {
		v += 1.0
	}

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	stride := tex.Stride
	pix := tex.Pix

	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	fr := float64(pix[i00])*w00 + float64(pix[i10])*w10 + float64(pix[i01])*w01 + float64(pix[i11])*w11
	fg := float64(pix[i00+1])*w00 + float64(pix[i10+1])*w10 + float64(pix[i01+1])*w01 + float64(pix[i11+1])*w11
	fb := float64(pix[i00+2])*w00 + float64(pix[i10+2])*w10 + float64(pix[i01+2])*w01 + float64(pix[i11+2])*w11
	fa := float64(pix[i00+3])*w00 + float64(pix[i10+3])*w10 + float64(pix[i01+3])*w01 + float64(pix[i11+3])*w11

	return uint8(fr + 0.5), uint8(fg + 0.5), uint8(fb + 0.5), uint8(fa + 0.5)
}
