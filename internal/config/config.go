// Package config holds the viewer's configurable sources and render
// settings, loaded from JSON with CLI flag overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all configurable sources and render settings.
type Config struct {
	// Sources
	RasterSource string  `json:"raster_source"`     // local path or http(s) URL of the concentration GeoTIFF
	BaseTexture  string  `json:"base_texture"`      // optional base globe imagery
	BaseCoverage float64 `json:"base_coverage_deg"` // longitude degrees the base texture spans

	// Overlay settings
	OverlayOpacity  float64 `json:"overlay_opacity"`
	OverlayStrategy string  `json:"overlay_strategy"` // "target" or "buffer"
	OverlaySize     int     `json:"overlay_size"`

	// Window settings
	WindowWidth  int     `json:"window_width"`
	WindowHeight int     `json:"window_height"`
	TargetFPS    int     `json:"target_fps"`
	CameraFOV    float64 `json:"camera_fov"`

	// Snapshot settings
	SnapshotSize int `json:"snapshot_size"`
	Supersample  int `json:"supersample"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	RasterSource string
	BaseTexture  string
	Opacity      float64
	Width        int
	Height       int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.RasterSource != "" {
		c.RasterSource = flags.RasterSource
	}
	if flags.BaseTexture != "" {
		c.BaseTexture = flags.BaseTexture
	}
	if flags.Opacity > 0 {
		c.OverlayOpacity = flags.Opacity
	}
	if flags.Width > 0 {
		c.WindowWidth = flags.Width
	}
	if flags.Height > 0 {
		c.WindowHeight = flags.Height
	}

	// Resolve a relative local raster path against the working
	// directory; URLs pass through untouched.
	if c.RasterSource != "" && !isURL(c.RasterSource) && !filepath.IsAbs(c.RasterSource) {
		if cwd, err := os.Getwd(); err == nil {
			c.RasterSource = filepath.Join(cwd, c.RasterSource)
		}
	}

	if c.BaseCoverage <= 0 || c.BaseCoverage > 360 {
		c.BaseCoverage = 360
	}
	if c.OverlayOpacity <= 0 || c.OverlayOpacity > 1 {
		c.OverlayOpacity = 0.5
	}
	if c.OverlaySize <= 0 {
		c.OverlaySize = 512
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = 960
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 540
	}
	if c.TargetFPS <= 0 {
		c.TargetFPS = 30
	}
	if c.CameraFOV <= 0 || c.CameraFOV >= 180 {
		c.CameraFOV = 60
	}
	if c.SnapshotSize <= 0 {
		c.SnapshotSize = 1024
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
