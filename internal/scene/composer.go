// Package scene assembles the base globe and overlay meshes and keeps
// their visibility and scale in sync with the view state.
package scene

import (
	"log/slog"

	"geo-overlay-viewer/internal/geotiff"
	"geo-overlay-viewer/internal/mathutil"
	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/state"
)

// Options configures the composed scene.
type Options struct {
	BaseLayer    string // layer name of the base globe, default "base"
	OverlayLayer string // layer name of the overlay, default "methane"

	BaseRadius     float64 // default 1
	OverlayRadius  float64 // default 1.01, floats above the base surface
	OverlayOpacity float64 // default 0.5
	Segments       int     // sphere tessellation, default 48
}

func (o *Options) applyDefaults() {
	if o.BaseLayer == "" {
		o.BaseLayer = "base"
	}
	if o.OverlayLayer == "" {
		o.OverlayLayer = "methane"
	}
	if o.BaseRadius <= 0 {
		o.BaseRadius = 1
	}
	if o.OverlayRadius <= 0 {
		o.OverlayRadius = o.BaseRadius * 1.01
	}
	if o.OverlayOpacity <= 0 {
		o.OverlayOpacity = 0.5
	}
	if o.Segments <= 0 {
		o.Segments = 48
	}
}

// Composer owns exactly one mesh per declared layer. Meshes never own
// layer state; their Visible flag is refreshed from the layer map once
// per frame by SyncVisibility.
type Composer struct {
	scene  *render.Scene
	meshes map[string]*render.Mesh
	opts   Options

	overlayReady bool
	logger       *slog.Logger
}

// NewComposer builds the scene with its base and overlay meshes. The
// overlay mesh starts without geometry and stays invisible until a
// synthesized texture is installed via SetOverlay.
func NewComposer(opts Options, logger *slog.Logger) *Composer {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	c := &Composer{
		scene:  render.NewScene(),
		meshes: make(map[string]*render.Mesh),
		opts:   opts,
		logger: logger,
	}

	baseMat := render.NewMaterial()
	baseMat.Color = render.Color{R: 12, G: 30, B: 66, A: 255} // untextured ocean blue
	base := render.NewMesh(opts.BaseLayer,
		render.NewFullSphereGeometry(opts.BaseRadius, opts.Segments, opts.Segments/2), baseMat)
	c.DeclareLayer(opts.BaseLayer, base)

	overlayMat := render.NewMaterial()
	overlayMat.Transparent = true
	overlayMat.Opacity = opts.OverlayOpacity
	overlay := render.NewMesh(opts.OverlayLayer, &render.Geometry{}, overlayMat)
	overlay.Visible = false
	c.DeclareLayer(opts.OverlayLayer, overlay)

	return c
}

// Scene returns the composed scene for drawing.
func (c *Composer) Scene() *render.Scene {
	return c.scene
}

// Mesh returns the mesh for a layer name, or nil.
func (c *Composer) Mesh(name string) *render.Mesh {
	return c.meshes[name]
}

// DeclareLayer registers a mesh under a layer name and adds it to the
// scene. Declaring an existing name replaces and disposes the old mesh.
func (c *Composer) DeclareLayer(name string, m *render.Mesh) {
	if prev, ok := c.meshes[name]; ok {
		c.scene.Remove(prev)
		prev.Dispose()
	}
	c.meshes[name] = m
	c.scene.Add(m)
}

// SetBaseTexture installs the base-surface texture. coverageDeg is the
// longitudinal extent the texture natively covers; the horizontal wrap
// repeat is the ratio of the full circle to that coverage, so the
// texture tiles seamlessly around the globe. The prior texture handle
// is released before the new one is assigned.
func (c *Composer) SetBaseTexture(tex *render.Texture, coverageDeg float64) {
	if coverageDeg <= 0 {
		coverageDeg = 360
	}
	tex.RepeatX = 360 / coverageDeg

	mesh := c.meshes[c.opts.BaseLayer]
	if old := mesh.Material.Texture; old != nil {
		old.Release()
	}
	mesh.Material.Texture = tex
}

// SetOverlay installs a synthesized overlay texture, rebuilding the
// overlay mesh geometry as a sphere segment spanning the raster's
// bounding box. Prior geometry and texture are released first.
func (c *Composer) SetOverlay(tex *render.Texture, b geotiff.BoundingBox) {
	mesh := c.meshes[c.opts.OverlayLayer]

	if old := mesh.Geometry; old != nil {
		old.Release()
	}
	if old := mesh.Material.Texture; old != nil {
		old.Release()
	}

	mesh.Geometry = render.NewSphereGeometry(
		c.opts.OverlayRadius,
		c.opts.Segments, c.opts.Segments/2,
		mathutil.Deg2Rad(b.MinLon), mathutil.Deg2Rad(b.MaxLon-b.MinLon),
		mathutil.Deg2Rad(90-b.MaxLat), mathutil.Deg2Rad(b.MaxLat-b.MinLat),
	)
	mesh.Material.Texture = tex
	c.overlayReady = true

	c.logger.Info("overlay installed",
		"minLon", b.MinLon, "minLat", b.MinLat, "maxLon", b.MaxLon, "maxLat", b.MaxLat)
}

// ClearOverlay removes the overlay (a failed or replaced ingestion
// leaves the base scene rendering without it).
func (c *Composer) ClearOverlay() {
	mesh := c.meshes[c.opts.OverlayLayer]
	if old := mesh.Geometry; old != nil {
		old.Release()
	}
	if old := mesh.Material.Texture; old != nil {
		old.Release()
		mesh.Material.Texture = nil
	}
	mesh.Geometry = &render.Geometry{}
	mesh.Visible = false
	c.overlayReady = false
}

// SyncVisibility copies layer visibility onto the matching meshes.
// Unknown layer names are ignored; a mesh whose layer entry is absent
// keeps its last-known visibility. Called once per frame.
func (c *Composer) SyncVisibility(layers map[string]bool) {
	for name, mesh := range c.meshes {
		if visible, ok := layers[name]; ok {
			mesh.Visible = visible
		}
	}
	if !c.overlayReady {
		c.meshes[c.opts.OverlayLayer].Visible = false
	}
}

// ApplyScale applies clamped scale factors to the overlay transform.
func (c *Composer) ApplyScale(sf state.ScaleFactors) {
	clamped := sf.Clamped()
	mesh := c.meshes[c.opts.OverlayLayer]
	mesh.Scale = mathutil.Vec3{clamped.X, clamped.Y, clamped.Z}
}

// OverlayReady reports whether a synthesized overlay is installed.
func (c *Composer) OverlayReady() bool {
	return c.overlayReady
}
