package render

// Color is an RGBA color with 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

// Material controls how a mesh surface is shaded. A nil Texture falls
// back to the flat Color. Transparent materials are drawn after all
// opaque ones with source-over blending scaled by Opacity; they depth
// test against the opaque pass but do not write depth.
type Material struct {
	Texture     *Texture
	Color       Color
	Opacity     float64
	Transparent bool

	released bool
}

// NewMaterial returns an opaque material with full opacity.
func NewMaterial() *Material {
	return &Material{
		Color:   Color{R: 255, G: 255, B: 255, A: 255},
		Opacity: 1,
	}
}

// Release frees the material's texture handle.
func (m *Material) Release() {
	if m == nil {
		return
	}
	if m.Texture != nil {
		m.Texture.Release()
	}
	m.released = true
}

// Released reports whether Release has been called.
func (m *Material) Released() bool {
	return m != nil && m.released
}
