// Package geotransform converts between pixel and geographic
// coordinates through a six-coefficient affine model, following the
// GDAL coefficient convention.
package geotransform

import (
	"errors"
	"fmt"
	"math"

	"geo-overlay-viewer/internal/geotiff"
)

// ErrDegenerateTransform indicates non-invertible affine coefficients
// (determinant of the linear part is approximately zero). This is a
// malformed-input condition and must surface instead of producing
// Inf/NaN coordinates.
var ErrDegenerateTransform = errors.New("geotransform: degenerate transform")

const detEpsilon = 1e-12

// GeoTransform maps pixel coordinates to geographic coordinates via
//
//	lon = a + b*px + c*py
//	lat = d + e*px + f*py
//
// and holds the algebraic inverse so that Inverse(Forward(p)) == p
// within floating-point tolerance. Derived deterministically from a
// dataset; immutable.
type GeoTransform struct {
	fwd [6]float64
	inv [6]float64
}

// New builds a transform from the six forward coefficients
// (a, b, c, d, e, f) and derives the inverse by general 2x2 inversion.
func New(a, b, c, d, e, f float64) (*GeoTransform, error) {
	det := b*f - c*e
	if math.Abs(det) < detEpsilon {
		return nil, fmt.Errorf("%w: determinant %g", ErrDegenerateTransform, det)
	}

	ib := f / det
	ic := -c / det
	ie := -e / det
	iff := b / det

	return &GeoTransform{
		fwd: [6]float64{a, b, c, d, e, f},
		inv: [6]float64{
			-(ib*a + ic*d), ib, ic,
			-(ie*a + iff*d), ie, iff,
		},
	}, nil
}

// FromDataset derives the transform from a dataset's georeferencing.
// The dataset stores sy positive; the sign flip to -sy happens here as
// an explicit step so increasing pixel-row maps to decreasing latitude
// (north-up convention).
func FromDataset(ds *geotiff.Dataset) (*GeoTransform, error) {
	sx := ds.PixelScale[0]
	sy := -ds.PixelScale[1] // north-up sign flip

	px, py := ds.TiePoint[0], ds.TiePoint[1]
	gx, gy := ds.TiePoint[3], ds.TiePoint[4]

	// Anchor the origin so the tie point's pixel coordinate maps onto
	// its geographic coordinate. With a zero tie pixel this reduces to
	// a = gx, d = gy.
	return New(gx-px*sx, sx, 0, gy-py*sy, 0, sy)
}

// Forward converts a pixel coordinate to (lon, lat).
func (t *GeoTransform) Forward(px, py float64) (lon, lat float64) {
	return t.fwd[0] + t.fwd[1]*px + t.fwd[2]*py,
		t.fwd[3] + t.fwd[4]*px + t.fwd[5]*py
}

// Inverse converts a geographic coordinate to fractional pixel
// coordinates.
func (t *GeoTransform) Inverse(lon, lat float64) (px, py float64) {
	return t.inv[0] + t.inv[1]*lon + t.inv[2]*lat,
		t.inv[3] + t.inv[4]*lon + t.inv[5]*lat
}

// InversePixel converts a geographic coordinate to integer pixel
// coordinates, truncating toward zero. Callers that need centroid
// sampling must round themselves.
func (t *GeoTransform) InversePixel(lon, lat float64) (px, py int) {
	fx, fy := t.Inverse(lon, lat)
	return int(fx), int(fy)
}

// Coefficients returns the six forward coefficients (a, b, c, d, e, f).
func (t *GeoTransform) Coefficients() [6]float64 {
	return t.fwd
}
