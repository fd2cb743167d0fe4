package geotransform

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"geo-overlay-viewer/internal/geotiff"
	"geo-overlay-viewer/internal/geotiff/geotifftest"
)

const tol = 1e-6

func decode(t *testing.T, w, h int, scale, tie []float64) *geotiff.Dataset {
	t.Helper()
	ds, err := geotiff.Decode(geotifftest.Build(w, h, scale, tie, nil))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return ds
}

func TestForward_ReferenceDataset(t *testing.T) {
	// pixelScale=(0.01,0.01,0), tiePoint=(0,0,0,-100,40,0), 1000x1000:
	// the upper-left pixel maps to the geographic anchor and the
	// opposite corner is 10 degrees east and 10 degrees south.
	ds := decode(t, 1000, 1000, []float64{0.01, 0.01, 0}, []float64{0, 0, 0, -100, 40, 0})

	tr, err := FromDataset(ds)
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	cases := []struct {
		px, py   float64
		lon, lat float64
	}{
		{0, 0, -100, 40},
		{1000, 1000, -90, 30},
		{500, 0, -95, 40},
		{0, 500, -100, 35},
	}
	for _, tc := range cases {
		lon, lat := tr.Forward(tc.px, tc.py)
		if math.Abs(lon-tc.lon) > tol || math.Abs(lat-tc.lat) > tol {
			t.Errorf("Forward(%g, %g) = (%g, %g), want (%g, %g)",
				tc.px, tc.py, lon, lat, tc.lon, tc.lat)
		}
	}

	want := geotiff.BoundingBox{MinLon: -100, MinLat: 30, MaxLon: -90, MaxLat: 40}
	if b := ds.Bounds; math.Abs(b.MinLon-want.MinLon) > tol || math.Abs(b.MinLat-want.MinLat) > tol ||
		math.Abs(b.MaxLon-want.MaxLon) > tol || math.Abs(b.MaxLat-want.MaxLat) > tol {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
}

func TestRoundTrip(t *testing.T) {
	ds := decode(t, 500, 300, []float64{0.02, 0.03, 0}, []float64{0, 0, 0, -12.5, 57.25, 0})
	tr, err := FromDataset(ds)
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		px := rng.Float64() * float64(ds.Width)
		py := rng.Float64() * float64(ds.Height)
		lon, lat := tr.Forward(px, py)
		bx, by := tr.Inverse(lon, lat)
		if math.Abs(bx-px) > tol || math.Abs(by-py) > tol {
			t.Fatalf("round trip (%g, %g) -> (%g, %g) -> (%g, %g)", px, py, lon, lat, bx, by)
		}
	}
}

func TestRoundTrip_NonZeroTiePixel(t *testing.T) {
	// A tie point anchored away from the raster origin must still map
	// its own pixel onto its own geographic coordinate.
	ds := decode(t, 200, 200, []float64{0.05, 0.05, 0}, []float64{50, 20, 0, 8.5, 47, 0})
	tr, err := FromDataset(ds)
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	lon, lat := tr.Forward(50, 20)
	if math.Abs(lon-8.5) > tol || math.Abs(lat-47) > tol {
		t.Errorf("Forward(tie pixel) = (%g, %g), want (8.5, 47)", lon, lat)
	}
}

func TestNorthUpSignFlip(t *testing.T) {
	ds := decode(t, 100, 100, []float64{0.1, 0.1, 0}, []float64{0, 0, 0, 0, 10, 0})
	tr, err := FromDataset(ds)
	if err != nil {
		t.Fatalf("FromDataset: %v", err)
	}

	_, latTop := tr.Forward(0, 0)
	_, latBottom := tr.Forward(0, 100)
	if latBottom >= latTop {
		t.Errorf("increasing pixel-row must decrease latitude: top=%g bottom=%g", latTop, latBottom)
	}
}

func TestNew_Degenerate(t *testing.T) {
	cases := []struct {
		name             string
		a, b, c, d, e, f float64
	}{
		{"zero linear part", 1, 0, 0, 2, 0, 0},
		{"parallel rows", 0, 1, 2, 0, 2, 4},
		{"near-zero determinant", 0, 1, 0, 0, 0, 1e-15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.a, tc.b, tc.c, tc.d, tc.e, tc.f)
			if !errors.Is(err, ErrDegenerateTransform) {
				t.Errorf("err = %v, want ErrDegenerateTransform", err)
			}
		})
	}
}

func TestNew_RotationTerms(t *testing.T) {
	// Non-zero off-diagonal terms still invert through the general 2x2 path.
	tr, err := New(10, 2, 0.5, 20, 0.25, -3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, p := range [][2]float64{{0, 0}, {3, 7}, {-2.5, 11.25}} {
		lon, lat := tr.Forward(p[0], p[1])
		px, py := tr.Inverse(lon, lat)
		if math.Abs(px-p[0]) > tol || math.Abs(py-p[1]) > tol {
			t.Errorf("round trip %v -> (%g, %g)", p, px, py)
		}
	}
}

func TestInversePixel_TruncatesTowardZero(t *testing.T) {
	tr, err := New(0, 1, 0, 0, 0, -1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		lon, lat float64
		px, py   int
	}{
		{3.9, -2.9, 3, 2},
		{3.1, -2.1, 3, 2},
		{-3.9, 2.9, -3, -2}, // toward zero, not floor
		{0, 0, 0, 0},
	}
	for _, tc := range cases {
		px, py := tr.InversePixel(tc.lon, tc.lat)
		if px != tc.px || py != tc.py {
			t.Errorf("InversePixel(%g, %g) = (%d, %d), want (%d, %d)",
				tc.lon, tc.lat, px, py, tc.px, tc.py)
		}
	}
}
