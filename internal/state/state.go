// Package state holds the mutable view state shared between the
// control-panel binding, the resize handler and the render loop.
//
// All fields are written only by host-serialized callbacks and read on
// the render goroutine's tick, so no locking is used; mutations must
// happen on the same goroutine that drives the loop.
package state

import "geo-overlay-viewer/internal/mathutil"

// Scale factor bounds. Out-of-range values are clamped, never rejected.
const (
	ScaleMin = 0.1
	ScaleMax = 5.0
)

// ScaleFactors are user-adjustable multipliers applied to the overlay
// mesh transform.
type ScaleFactors struct {
	X, Y, Z float64
}

// Clamped returns the factors limited to [ScaleMin, ScaleMax].
func (s ScaleFactors) Clamped() ScaleFactors {
	return ScaleFactors{
		X: mathutil.Clamp(s.X, ScaleMin, ScaleMax),
		Y: mathutil.Clamp(s.Y, ScaleMin, ScaleMax),
		Z: mathutil.Clamp(s.Z, ScaleMin, ScaleMax),
	}
}

// ViewportState mirrors the host window surface. Mutated exclusively
// by the resize handler; read by camera and renderer updates.
type ViewportState struct {
	Width       int
	Height      int
	PixelRatio  float64
	AspectRatio float64
}

// ViewState is the explicit, serializable state struct read by the
// render tick. The control panel mutates it through setters; the tick
// only reads.
type ViewState struct {
	Layers   map[string]bool
	Scale    ScaleFactors
	Viewport ViewportState
}

// New returns a view state with unit scale and no layers declared.
func New() *ViewState {
	return &ViewState{
		Layers: make(map[string]bool),
		Scale:  ScaleFactors{X: 1, Y: 1, Z: 1},
	}
}

// SetLayer sets a layer's visibility flag, declaring it if absent.
func (v *ViewState) SetLayer(name string, visible bool) {
	v.Layers[name] = visible
}

// ToggleLayer flips a layer's visibility and returns the new value.
func (v *ViewState) ToggleLayer(name string) bool {
	v.Layers[name] = !v.Layers[name]
	return v.Layers[name]
}

// SetScale stores clamped scale factors.
func (v *ViewState) SetScale(x, y, z float64) {
	v.Scale = ScaleFactors{X: x, Y: y, Z: z}.Clamped()
}
