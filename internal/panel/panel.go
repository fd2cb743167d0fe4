// Package panel is the control-panel binding sink: a flat namespace of
// named boolean and numeric fields wired onto the view state. The
// interactive widget driving it is an external collaborator; the only
// guarantee is that a mutation is visible to the next render tick
// (last write wins).
package panel

import (
	"strings"

	"geo-overlay-viewer/internal/state"
)

// Panel applies named field writes to a ViewState.
//
// Recognized names:
//
//	layers.<name>  (bool)   layer visibility
//	scale.x|y|z    (number) overlay scale factor, clamped
type Panel struct {
	st *state.ViewState
}

// New binds a panel to a view state.
func New(st *state.ViewState) *Panel {
	return &Panel{st: st}
}

// SetBool applies a boolean field write. Unrecognized names are ignored.
func (p *Panel) SetBool(name string, v bool) {
	if layer, ok := strings.CutPrefix(name, "layers."); ok && layer != "" {
		p.st.SetLayer(layer, v)
	}
}

// SetNumber applies a numeric field write. Scale writes are clamped to
// the configured range. Unrecognized names are ignored.
func (p *Panel) SetNumber(name string, v float64) {
	s := p.st.Scale
	switch name {
	case "scale.x":
		p.st.SetScale(v, s.Y, s.Z)
	case "scale.y":
		p.st.SetScale(s.X, v, s.Z)
	case "scale.z":
		p.st.SetScale(s.X, s.Y, v)
	}
}

// Bool reads a boolean field. Unknown names read false.
func (p *Panel) Bool(name string) bool {
	if layer, ok := strings.CutPrefix(name, "layers."); ok {
		return p.st.Layers[layer]
	}
	return false
}

// Number reads a numeric field. Unknown names read 0.
func (p *Panel) Number(name string) float64 {
	switch name {
	case "scale.x":
		return p.st.Scale.X
	case "scale.y":
		return p.st.Scale.Y
	case "scale.z":
		return p.st.Scale.Z
	}
	return 0
}
