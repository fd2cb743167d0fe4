package render

import (
	"image"
	"math"
)

// Target holds a render destination as flat slices for cache locality:
// interleaved RGBA color and a per-pixel depth buffer initialized to
// -inf (larger depth values are closer to the camera).
type Target struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	Depth  []float64 // len = W*H
}

// NewTarget allocates a zeroed color buffer and -inf depth buffer.
func NewTarget(w, h int) *Target {
	n := w * h
	depth := make([]float64, n)
	for i := range depth {
		depth[i] = math.Inf(-1)
	}
	return &Target{
		Width:  w,
		Height: h,
		Color:  make([]uint8, n*4),
		Depth:  depth,
	}
}

// Clear fills the color buffer with one color and resets depth.
func (t *Target) Clear(r, g, b, a uint8) {
	for i := 0; i < len(t.Color); i += 4 {
		t.Color[i] = r
		t.Color[i+1] = g
		t.Color[i+2] = b
		t.Color[i+3] = a
	}
	for i := range t.Depth {
		t.Depth[i] = math.Inf(-1)
	}
}

// Texture returns a readable texture view over the target's color
// buffer, mirroring a render target's .texture property. The view
// shares the buffer; it reflects subsequent draws into the target.
func (t *Target) Texture() *Texture {
	return NewTexture(&image.NRGBA{
		Pix:    t.Color,
		Stride: t.Width * 4,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	})
}

// Image copies the color buffer into a standalone NRGBA image.
func (t *Target) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	copy(img.Pix, t.Color)
	return img
}
