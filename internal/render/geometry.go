package render

import "math"

// Geometry holds triangle mesh data with a shared vertex/UV index.
type Geometry struct {
	Vertices [][3]float64
	UVs      [][2]float64
	Faces    [][3]int

	released bool
}

// Release drops the vertex buffers.
func (g *Geometry) Release() {
	if g == nil {
		return
	}
	g.Vertices = nil
	g.UVs = nil
	g.Faces = nil
	g.released = true
}

// Released reports whether Release has been called.
func (g *Geometry) Released() bool {
	return g != nil && g.released
}

// NewPlaneGeometry builds a subdivided plane in the XY plane centered
// at the origin, facing +Z. UVs run left-to-right, top-to-bottom.
func NewPlaneGeometry(width, height float64, segsX, segsY int) *Geometry {
	if segsX < 1 {
		segsX = 1
	}
	if segsY < 1 {
		segsY = 1
	}

	g := &Geometry{}
	for iy := 0; iy <= segsY; iy++ {
		v := float64(iy) / float64(segsY)
		y := height/2 - v*height
		for ix := 0; ix <= segsX; ix++ {
			u := float64(ix) / float64(segsX)
			x := -width/2 + u*width
			g.Vertices = append(g.Vertices, [3]float64{x, y, 0})
			g.UVs = append(g.UVs, [2]float64{u, v})
		}
	}

	cols := segsX + 1
	for iy := 0; iy < segsY; iy++ {
		for ix := 0; ix < segsX; ix++ {
			a := iy*cols + ix
			b := a + 1
			c := a + cols
			d := c + 1
			g.Faces = append(g.Faces, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}
	return g
}

// NewSphereGeometry builds a UV sphere, optionally restricted to an
// angular segment: phiStart/phiLength sweep longitude (radians, full
// circle = 2π), thetaStart/thetaLength sweep latitude from the north
// pole (full sweep = π). UVs span the segment so a texture covers
// exactly the generated extent.
func NewSphereGeometry(radius float64, widthSegs, heightSegs int, phiStart, phiLength, thetaStart, thetaLength float64) *Geometry {
	if widthSegs < 3 {
		widthSegs = 3
	}
	if heightSegs < 2 {
		heightSegs = 2
	}

	g := &Geometry{}
	for iy := 0; iy <= heightSegs; iy++ {
		v := float64(iy) / float64(heightSegs)
		theta := thetaStart + v*thetaLength
		sinT, cosT := math.Sin(theta), math.Cos(theta)
		for ix := 0; ix <= widthSegs; ix++ {
			u := float64(ix) / float64(widthSegs)
			phi := phiStart + u*phiLength
			g.Vertices = append(g.Vertices, [3]float64{
				-radius * sinT * math.Cos(phi),
				radius * cosT,
				radius * sinT * math.Sin(phi),
			})
			g.UVs = append(g.UVs, [2]float64{u, v})
		}
	}

	cols := widthSegs + 1
	for iy := 0; iy < heightSegs; iy++ {
		for ix := 0; ix < widthSegs; ix++ {
			a := iy*cols + ix
			b := a + 1
			c := a + cols
			d := c + 1
			g.Faces = append(g.Faces, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}
	return g
}

// NewFullSphereGeometry builds a complete UV sphere.
func NewFullSphereGeometry(radius float64, widthSegs, heightSegs int) *Geometry {
	return NewSphereGeometry(radius, widthSegs, heightSegs, 0, 2*math.Pi, 0, math.Pi)
}
