// Package viewport keeps the renderer, the camera projection and the
// shared view state consistent with the host window surface.
package viewport

import (
	"log/slog"

	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/state"
)

// MaxPixelRatio caps the device pixel ratio so high-DPI displays do not
// quadruple the framebuffer cost.
const MaxPixelRatio = 2.0

// ClampPixelRatio maps a reported device pixel ratio to the effective
// one: min(ratio, MaxPixelRatio), with non-positive input treated as 1.
func ClampPixelRatio(ratio float64) float64 {
	if ratio <= 0 {
		return 1
	}
	if ratio > MaxPixelRatio {
		return MaxPixelRatio
	}
	return ratio
}

// Manager applies surface dimension changes to the camera and renderer
// in one place, so aspect ratio, framebuffer size and pixel ratio never
// drift apart.
type Manager struct {
	renderer *render.Renderer
	camera   *render.PerspectiveCamera
	st       *state.ViewState
	logger   *slog.Logger
}

// NewManager wires a manager to its renderer, camera and view state.
func NewManager(renderer *render.Renderer, camera *render.PerspectiveCamera, st *state.ViewState, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{renderer: renderer, camera: camera, st: st, logger: logger}
}

// Resize propagates new surface dimensions. A call that changes nothing
// returns without touching camera or renderer, so redundant resize
// events are free. Non-positive dimensions keep the last good state.
func (m *Manager) Resize(width, height int, pixelRatio float64) {
	if width <= 0 || height <= 0 {
		m.logger.Warn("ignoring resize to empty surface", "width", width, "height", height)
		return
	}

	pr := ClampPixelRatio(pixelRatio)
	cur := m.st.Viewport
	if cur.Width == width && cur.Height == height && cur.PixelRatio == pr {
		return
	}

	aspect := float64(width) / float64(height)
	m.st.Viewport = state.ViewportState{
		Width:       width,
		Height:      height,
		PixelRatio:  pr,
		AspectRatio: aspect,
	}

	m.camera.Aspect = aspect
	m.camera.UpdateProjection()
	m.renderer.SetPixelRatio(pr)
	m.renderer.SetSize(width, height)

	m.logger.Debug("viewport resized",
		"width", width, "height", height, "pixel_ratio", pr)
}

// State returns the current viewport state.
func (m *Manager) State() state.ViewportState {
	return m.st.Viewport
}
