// Package overlay turns a decoded raster dataset into a
// GPU-consumable overlay texture.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"geo-overlay-viewer/internal/colormap"
	"geo-overlay-viewer/internal/geotiff"
	"geo-overlay-viewer/internal/render"
)

// ErrTextureSynthesis indicates the overlay texture could not be
// produced (render target acquisition or draw failure).
var ErrTextureSynthesis = errors.New("overlay: texture synthesis failed")

// Strategy selects how the overlay texture is produced.
type Strategy int

const (
	// StrategyRenderTarget composes a minimal offscreen scene with a
	// quad representing the data and draws it through an orthographic
	// projection into a fixed-resolution target.
	StrategyRenderTarget Strategy = iota
	// StrategyDirectBuffer samples the decoded raster into an
	// image-sized buffer and passes it through unchanged.
	StrategyDirectBuffer
)

// ParseStrategy maps a config string to a strategy. Unknown values
// fall back to the render-target strategy.
func ParseStrategy(s string) Strategy {
	if s == "buffer" {
		return StrategyDirectBuffer
	}
	return StrategyRenderTarget
}

// Config controls synthesis.
type Config struct {
	Strategy Strategy
	Size     int            // texture edge length in pixels, default 512
	Ramp     *colormap.Ramp // default colormap.Heat()
}

// Synthesizer produces overlay textures. Synthesis runs once per
// dataset: repeated calls with the same dataset return the cached
// texture. The produced texture's dimensions are fixed at synthesis
// time and independent of the viewport.
type Synthesizer struct {
	renderer *render.Renderer
	cfg      Config
	logger   *slog.Logger

	lastDataset *geotiff.Dataset
	lastTexture *render.Texture
}

// New creates a synthesizer drawing through the given renderer.
func New(renderer *render.Renderer, cfg Config, logger *slog.Logger) *Synthesizer {
	if cfg.Size == 0 {
		cfg.Size = 512
	}
	if cfg.Ramp == nil {
		cfg.Ramp = colormap.Heat()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{renderer: renderer, cfg: cfg, logger: logger}
}

// Synthesize produces the overlay texture for a dataset.
func (s *Synthesizer) Synthesize(ds *geotiff.Dataset) (*render.Texture, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrTextureSynthesis)
	}
	if ds == s.lastDataset && s.lastTexture != nil && !s.lastTexture.Released() {
		return s.lastTexture, nil
	}

	var (
		tex *render.Texture
		err error
	)
	switch s.cfg.Strategy {
	case StrategyDirectBuffer:
		tex, err = s.directBuffer(ds)
	default:
		tex, err = s.renderToTexture(ds)
	}
	if err != nil {
		return nil, err
	}

	s.lastDataset = ds
	s.lastTexture = tex
	s.logger.Debug("overlay texture synthesized",
		"size", s.cfg.Size, "strategy", int(s.cfg.Strategy))
	return tex, nil
}

// renderToTexture draws a data quad into an offscreen target and
// exposes the target's texture. The renderer's target binding is
// restored after synthesis completes, regardless of success or
// failure, so the subsequent main-scene draw is unaffected.
func (s *Synthesizer) renderToTexture(ds *geotiff.Dataset) (*render.Texture, error) {
	if s.cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: invalid target size %d", ErrTextureSynthesis, s.cfg.Size)
	}

	target := render.NewTarget(s.cfg.Size, s.cfg.Size)

	prev := s.renderer.Target()
	s.renderer.SetTarget(target)
	defer s.renderer.SetTarget(prev)

	// No-data texels must come out transparent, so the offscreen pass
	// clears to zero alpha instead of the main scene's opaque clear.
	prevClear := s.renderer.ClearColor()
	s.renderer.SetClearColor(render.Color{})
	defer s.renderer.SetClearColor(prevClear)

	mat := render.NewMaterial()
	mat.Texture = render.NewTexture(s.sampleImage(ds))

	quad := render.NewMesh("data", render.NewPlaneGeometry(2, 2, 1, 1), mat)
	defer quad.Dispose()
	offscreen := render.NewScene()
	offscreen.Add(quad)

	cam := render.NewOrthographicCamera(-1, 1, 1, -1, 0.1, 10)
	if err := s.renderer.Render(offscreen, cam, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTextureSynthesis, err)
	}

	return target.Texture(), nil
}

// directBuffer samples the raster straight into an image buffer.
func (s *Synthesizer) directBuffer(ds *geotiff.Dataset) (*render.Texture, error) {
	if s.cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: invalid buffer size %d", ErrTextureSynthesis, s.cfg.Size)
	}
	return render.NewTexture(s.sampleImage(ds)), nil
}

// sampleImage nearest-samples the dataset through the color ramp into
// a Size×Size image.
func (s *Synthesizer) sampleImage(ds *geotiff.Dataset) *image.NRGBA {
	size := s.cfg.Size
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		py := y * ds.Height / size
		for x := 0; x < size; x++ {
			px := x * ds.Width / size
			c := s.cfg.Ramp.Map(ds.Sample(px, py))
			off := img.PixOffset(x, y)
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
		}
	}
	return img
}
