package geotiff

// BoundingBox is the geographic rectangle covered by a raster,
// in degrees.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains reports whether the point (lon, lat) lies inside the box,
// edges included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Dataset is a decoded georeferenced raster. It is created once per
// successful decode and must be treated as read-only afterwards.
//
// PixelScale holds (sx, sy, sz) with sy kept positive regardless of the
// sign used by the source encoding; the north-up sign flip is applied
// when the affine transform is derived, not here, so the convention
// stays auditable.
type Dataset struct {
	Width  int
	Height int

	PixelScale [3]float64 // sx, sy, sz
	TiePoint   [6]float64 // px, py, pk, gx, gy, gz

	Bounds BoundingBox

	samples []float64 // row-major, normalized to [0, 1]
}

// Sample returns the normalized concentration value at pixel (px, py).
// Out-of-extent coordinates return 0.
func (d *Dataset) Sample(px, py int) float64 {
	if px < 0 || px >= d.Width || py < 0 || py >= d.Height {
		return 0
	}
	return d.samples[py*d.Width+px]
}
