package render

import (
	"errors"
	"log/slog"
	"math"

	"geo-overlay-viewer/internal/mathutil"
)

// ErrNoTarget indicates a draw was issued with no usable destination.
var ErrNoTarget = errors.New("render: no target bound")

// Renderer draws scenes into pixel targets. It owns a default
// framebuffer sized from the logical size times the pixel ratio, and
// an optional offscreen target binding used by render-to-texture
// passes. Not safe for concurrent use; all draws happen on the render
// goroutine.
type Renderer struct {
	width      int
	height     int
	pixelRatio float64
	clearColor Color

	framebuffer *Target
	bound       *Target // nil means the default framebuffer

	frames int64
	logger *slog.Logger
}

// NewRenderer creates a renderer with a pixel ratio of 1.
func NewRenderer(width, height int, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		width:      width,
		height:     height,
		pixelRatio: 1,
		clearColor: Color{A: 255},
		logger:     logger,
	}
	r.allocFramebuffer()
	return r
}

func (r *Renderer) allocFramebuffer() {
	w := int(math.Round(float64(r.width) * r.pixelRatio))
	h := int(math.Round(float64(r.height) * r.pixelRatio))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if r.framebuffer != nil && r.framebuffer.Width == w && r.framebuffer.Height == h {
		return
	}
	r.framebuffer = NewTarget(w, h)
	r.logger.Debug("renderer surface resized",
		"width", w, "height", h, "pixelRatio", r.pixelRatio)
}

// SetSize resizes the default framebuffer to the given logical size.
func (r *Renderer) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.allocFramebuffer()
}

// SetPixelRatio changes the backing-store scale of the framebuffer.
func (r *Renderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
	r.allocFramebuffer()
}

// Size returns the logical size.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// PixelRatio returns the current backing-store scale.
func (r *Renderer) PixelRatio() float64 {
	return r.pixelRatio
}

// SetClearColor sets the color the target is cleared to before a draw.
func (r *Renderer) SetClearColor(c Color) {
	r.clearColor = c
}

// ClearColor returns the color the target is cleared to before a draw.
func (r *Renderer) ClearColor() Color {
	return r.clearColor
}

// Framebuffer returns the default framebuffer.
func (r *Renderer) Framebuffer() *Target {
	return r.framebuffer
}

// SetTarget binds an offscreen target for subsequent draws. Pass nil
// to restore the default framebuffer. Callers doing a scoped
// render-to-texture pass must save the prior binding and restore it
// when done, regardless of success or failure.
func (r *Renderer) SetTarget(t *Target) {
	r.bound = t
}

// Target returns the currently bound offscreen target, or nil when the
// default framebuffer is bound.
func (r *Renderer) Target() *Target {
	return r.bound
}

// Frames returns the number of completed draws.
func (r *Renderer) Frames() int64 {
	return r.frames
}

// Render clears the destination and draws the scene through the
// camera: opaque meshes first, then transparent ones, relying on the
// depth buffer rather than any custom sorting. An explicit target
// overrides the current binding for this draw only.
func (r *Renderer) Render(scene *Scene, cam Camera, target *Target) error {
	dst := target
	if dst == nil {
		dst = r.bound
	}
	if dst == nil {
		dst = r.framebuffer
	}
	if dst == nil {
		return ErrNoTarget
	}

	c := r.clearColor
	dst.Clear(c.R, c.G, c.B, c.A)

	vp := cam.ViewProjection()

	for _, m := range scene.Meshes() {
		if m.Visible && m.Material != nil && !m.Material.Transparent {
			r.drawMesh(dst, m, vp, drawOptions{depthWrite: true, opacity: 1})
		}
	}
	for _, m := range scene.Meshes() {
		if m.Visible && m.Material != nil && m.Material.Transparent {
			r.drawMesh(dst, m, vp, drawOptions{blend: true, opacity: m.Material.Opacity})
		}
	}

	r.frames++
	return nil
}

// drawMesh projects the mesh's vertices to screen space and rasterizes
// its faces. Faces with any vertex behind the camera are rejected.
func (r *Renderer) drawMesh(dst *Target, m *Mesh, vp mathutil.Mat4, opts drawOptions) {
	g := m.Geometry
	if g == nil || len(g.Vertices) == 0 {
		return
	}

	mvp := mathutil.Mat4Mul(vp, m.ModelMatrix())

	n := len(g.Vertices)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)
	ok := make([]bool, n)

	halfW := float64(dst.Width) / 2
	halfH := float64(dst.Height) / 2

	for i, v := range g.Vertices {
		p, w := mvp.Project(mathutil.Vec3{v[0], v[1], v[2]})
		if w <= 1e-9 {
			continue
		}
		ndcX := p[0] / w
		ndcY := p[1] / w
		ndcZ := p[2] / w
		px[i] = (ndcX + 1) * halfW
		py[i] = (1 - ndcY) * halfH
		pz[i] = -ndcZ // larger is closer, matching the depth buffer
		ok[i] = true
	}

	for _, face := range g.Faces {
		if face[0] < 0 || face[0] >= n || face[1] < 0 || face[1] >= n || face[2] < 0 || face[2] >= n {
			continue
		}
		if !ok[face[0]] || !ok[face[1]] || !ok[face[2]] {
			continue
		}
		rasterizeTriangle(dst, px, py, pz, g.UVs, face, m.Material, opts)
	}
}
