// Command snapshot renders one frame of the globe with the
// concentration overlay and writes it as a WebP image.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"geo-overlay-viewer/internal/config"
	"geo-overlay-viewer/internal/ingest"
	"geo-overlay-viewer/internal/loop"
	"geo-overlay-viewer/internal/mathutil"
	"geo-overlay-viewer/internal/overlay"
	"geo-overlay-viewer/internal/postprocess"
	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/scene"
	"geo-overlay-viewer/internal/state"
	"geo-overlay-viewer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to config JSON file")
	raster := flag.String("raster", "", "Concentration GeoTIFF path or URL")
	base := flag.String("base", "", "Base globe texture path")
	out := flag.String("out", "snapshot.webp", "Output WebP path")
	size := flag.Int("size", 0, "Snapshot edge length in pixels")
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
	if *size > 0 {
		cfg.SnapshotSize = *size
	}
	if cfg.RasterSource == "" {
		fmt.Fprintln(os.Stderr, "Error: no raster source. Use -raster or config.json.")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := ingest.NewService(nil, logger)
	res, err := svc.Load(ctx, cfg.RasterSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading raster: %v\n", err)
		os.Exit(1)
	}

	// Render supersampled, downsample once at the end.
	renderSize := cfg.SnapshotSize * cfg.Supersample
	renderer := render.NewRenderer(renderSize, renderSize, logger)

	composer := scene.NewComposer(scene.Options{
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

	synth := overlay.New(renderer, overlay.Config{
		Strategy: overlay.ParseStrategy(cfg.OverlayStrategy),
		Size:     cfg.OverlaySize,
	}, logger)
	tex, err := synth.Synthesize(res.Dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error synthesizing overlay: %v\n", err)
		os.Exit(1)
	}
	composer.SetOverlay(tex, res.Dataset.Bounds)

	st := state.New()
	st.SetLayer("base", true)
	st.SetLayer("methane", true)

	camera := render.NewPerspectiveCamera(cfg.CameraFOV, 1, 0.1, 100)
	camera.Position = mathutil.Vec3{0, 0, 3}

	sched := loop.NewScheduler(renderer, composer, camera, st, logger)
	sched.Start(time.Now())
	sched.Tick(time.Now())
	sched.Stop()

	img := postprocess.Downsample(renderer.Framebuffer().Image(), cfg.SnapshotSize)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding WebP: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot: %s (%dx%d)\n", *out, cfg.SnapshotSize, cfg.SnapshotSize)
}
