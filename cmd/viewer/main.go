// Command viewer opens an interactive window showing a globe with the
// concentration overlay. Keys: M toggles the overlay, B the base
// layer, +/- adjust the overlay scale, arrows orbit the camera.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"geo-overlay-viewer/internal/config"
	"geo-overlay-viewer/internal/ingest"
	"geo-overlay-viewer/internal/loop"
	"geo-overlay-viewer/internal/mathutil"
	"geo-overlay-viewer/internal/overlay"
	"geo-overlay-viewer/internal/panel"
	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/scene"
	"geo-overlay-viewer/internal/state"
	"geo-overlay-viewer/internal/texture"
	"geo-overlay-viewer/internal/viewport"
)

const (
	overlayLayer = "methane"
	baseLayer    = "base"
	orbitRadius  = 3.0
	orbitStep    = 0.03
	maxPitch     = 1.4 // radians, keeps the camera off the poles
	scaleStep    = 1.1
)

type loadResult struct {
	res *ingest.Result
	err error
}

type game struct {
	renderer *render.Renderer
	composer *scene.Composer
	camera   *render.PerspectiveCamera
	st       *state.ViewState
	panel    *panel.Panel
	vp       *viewport.Manager
	sched    *loop.Scheduler
	synth    *overlay.Synthesizer
	logger   *slog.Logger

	loadCh chan loadResult
	yaw    float64
	pitch  float64
	fbImg  *ebiten.Image
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.panel.SetBool("layers."+overlayLayer, !g.panel.Bool("layers."+overlayLayer))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.panel.SetBool("layers."+baseLayer, !g.panel.Bool("layers."+baseLayer))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.adjustScale(scaleStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.adjustScale(1 / scaleStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.yaw -= orbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.yaw += orbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.pitch = mathutil.Clamp(g.pitch+orbitStep, -maxPitch, maxPitch)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.pitch = mathutil.Clamp(g.pitch-orbitStep, -maxPitch, maxPitch)
	}
	orbit := mathutil.Mat3Mul(mathutil.RotY(g.yaw), mathutil.RotX(g.pitch))
	g.camera.Position = orbit.MulVec3(mathutil.Vec3{0, 0, orbitRadius})

	// Install the overlay once its raster finishes loading.
	select {
	case lr := <-g.loadCh:
		if lr.err != nil {
			g.logger.Error("raster load failed", "error", lr.err)
			break
		}
		tex, err := g.synth.Synthesize(lr.res.Dataset)
		if err != nil {
			g.logger.Error("overlay synthesis failed", "error", err)
			break
		}
		g.composer.SetOverlay(tex, lr.res.Dataset.Bounds)
	default:
	}

	g.sched.Tick(time.Now())
	return nil
}

func (g *game) adjustScale(factor float64) {
	s := g.st.Scale
	g.st.SetScale(s.X*factor, s.Y*factor, s.Z*factor)
}

func (g *game) Draw(screen *ebiten.Image) {
	fb := g.renderer.Framebuffer()
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != fb.Width || g.fbImg.Bounds().Dy() != fb.Height {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.Width, fb.Height)
	}
	g.fbImg.WritePixels(fb.Color)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(
		float64(screen.Bounds().Dx())/float64(fb.Width),
		float64(screen.Bounds().Dy())/float64(fb.Height),
	)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.fbImg, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.vp.Resize(outsideWidth, outsideHeight, ebiten.DeviceScaleFactor())
	}
	return outsideWidth, outsideHeight
}

func main() {
	configFile := flag.String("config", "", "Path to config JSON file")
	raster := flag.String("raster", "", "Concentration GeoTIFF path or URL")
	base := flag.String("base", "", "Base globe texture path")
	opacity := flag.Float64("opacity", 0, "Overlay opacity 0-1")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		RasterSource: *raster,
		BaseTexture:  *base,
		Opacity:      *opacity,
	})
	if cfg.RasterSource == "" {
		fmt.Fprintln(os.Stderr, "Error: no raster source. Use -raster or config.json.")
		os.Exit(1)
	}

	renderer := render.NewRenderer(cfg.WindowWidth, cfg.WindowHeight, logger)
	composer := scene.NewComposer(scene.Options{
		BaseLayer:      baseLayer,
		OverlayLayer:   overlayLayer,
		OverlayOpacity: cfg.OverlayOpacity,
	}, logger)

	if cfg.BaseTexture != "" {
		cache := texture.NewCache()
		if img := cache.Resolve(cfg.BaseTexture); img != nil {
			composer.SetBaseTexture(render.NewTexture(img), cfg.BaseCoverage)
		} else {
			logger.Warn("base texture unavailable, using flat shading", "path", cfg.BaseTexture)
		}
	}

	st := state.New()
	st.SetLayer(baseLayer, true)
	st.SetLayer(overlayLayer, true)

	aspect := float64(cfg.WindowWidth) / float64(cfg.WindowHeight)
	camera := render.NewPerspectiveCamera(cfg.CameraFOV, aspect, 0.1, 100)
	camera.Position = mathutil.Vec3{0, 0, orbitRadius}

	g := &game{
		renderer: renderer,
		composer: composer,
		camera:   camera,
		st:       st,
		panel:    panel.New(st),
		vp:       viewport.NewManager(renderer, camera, st, logger),
		sched:    loop.NewScheduler(renderer, composer, camera, st, logger),
		synth: overlay.New(renderer, overlay.Config{
			Strategy: overlay.ParseStrategy(cfg.OverlayStrategy),
			Size:     cfg.OverlaySize,
		}, logger),
		logger: logger,
		loadCh: make(chan loadResult, 1),
	}

	svc := ingest.NewService(nil, logger)
	go func() {
		res, err := svc.Load(context.Background(), cfg.RasterSource)
		g.loadCh <- loadResult{res: res, err: err}
	}()

	g.sched.Start(time.Now())
	defer g.sched.Stop()

	ebiten.SetWindowTitle("Methane Overlay Viewer")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TargetFPS)

	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
