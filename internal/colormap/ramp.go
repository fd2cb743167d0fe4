// Package colormap maps normalized concentration values to colors.
package colormap

import "image/color"

// Stop anchors a color at a normalized value in [0, 1].
type Stop struct {
	At    float64
	Color color.NRGBA
}

// Ramp is a piecewise-linear color gradient. Values below the first
// stop take the first color, values above the last take the last.
type Ramp struct {
	stops []Stop
}

// New builds a ramp from stops ordered by At ascending.
func New(stops ...Stop) *Ramp {
	return &Ramp{stops: stops}
}

// Heat is the default concentration ramp: transparent through purple
// and red up to yellow, so low values stay see-through on the overlay.
func Heat() *Ramp {
	return New(
		Stop{0.0, color.NRGBA{0, 0, 0, 0}},
		Stop{0.25, color.NRGBA{90, 24, 154, 160}},
		Stop{0.5, color.NRGBA{214, 40, 40, 200}},
		Stop{0.75, color.NRGBA{244, 140, 6, 230}},
		Stop{1.0, color.NRGBA{255, 235, 59, 255}},
	)
}

// Map returns the interpolated color for a normalized value.
func (r *Ramp) Map(v float64) color.NRGBA {
	if len(r.stops) == 0 {
		return color.NRGBA{}
	}
	if v <= r.stops[0].At {
		return r.stops[0].Color
	}
	last := r.stops[len(r.stops)-1]
	if v >= last.At {
		return last.Color
	}

	for i := 1; i < len(r.stops); i++ {
		hi := r.stops[i]
		if v > hi.At {
			continue
		}
		lo := r.stops[i-1]
		span := hi.At - lo.At
		if span <= 0 {
			return hi.Color
		}
		t := (v - lo.At) / span
		return color.NRGBA{
			R: lerp8(lo.Color.R, hi.Color.R, t),
			G: lerp8(lo.Color.G, hi.Color.G, t),
			B: lerp8(lo.Color.B, hi.Color.B, t),
			A: lerp8(lo.Color.A, hi.Color.A, t),
		}
	}
	return last.Color
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
