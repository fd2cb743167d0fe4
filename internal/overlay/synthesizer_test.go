package overlay

import (
	"errors"
	"testing"

	"geo-overlay-viewer/internal/geotiff"
	"geo-overlay-viewer/internal/geotiff/geotifftest"
	"geo-overlay-viewer/internal/render"
)

func uniformDataset(t *testing.T, w, h int, value byte) *geotiff.Dataset {
	t.Helper()
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = value
	}
	data := geotifftest.Build(w, h,
		[]float64{0.01, 0.01, 0},
		[]float64{0, 0, 0, -100, 40, 0},
		pix)
	ds, err := geotiff.Decode(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return ds
}

func TestSynthesizeDirectBufferColors(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	s := New(r, Config{Strategy: StrategyDirectBuffer, Size: 8}, nil)

	hot := uniformDataset(t, 4, 4, 255)
	tex, err := s.Synthesize(hot)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	img := tex.Image()
	if got := img.Bounds().Dx(); got != 8 {
		t.Fatalf("texture width = %d, want 8", got)
	}
	off := img.PixOffset(4, 4)
	if img.Pix[off] != 255 || img.Pix[off+1] != 235 || img.Pix[off+2] != 59 || img.Pix[off+3] != 255 {
		t.Errorf("hot pixel = %v, want 255 235 59 255", img.Pix[off:off+4])
	}

	cold := uniformDataset(t, 4, 4, 0)
	tex, err = s.Synthesize(cold)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	img = tex.Image()
	off = img.PixOffset(4, 4)
	if img.Pix[off+3] != 0 {
		t.Errorf("cold pixel alpha = %d, want 0 (transparent)", img.Pix[off+3])
	}
}

func TestSynthesizeSizeIndependentOfViewport(t *testing.T) {
	r := render.NewRenderer(100, 50, nil)
	s := New(r, Config{Size: 32}, nil)

	tex, err := s.Synthesize(uniformDataset(t, 4, 4, 200))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if w, h := tex.Image().Bounds().Dx(), tex.Image().Bounds().Dy(); w != 32 || h != 32 {
		t.Fatalf("texture size = %dx%d, want 32x32", w, h)
	}

	r.SetSize(300, 200)
	tex, err = s.Synthesize(uniformDataset(t, 8, 8, 200))
	if err != nil {
		t.Fatalf("Synthesize after resize: %v", err)
	}
	if w, h := tex.Image().Bounds().Dx(), tex.Image().Bounds().Dy(); w != 32 || h != 32 {
		t.Errorf("texture size after viewport resize = %dx%d, want 32x32", w, h)
	}
}

func TestSynthesizeRenderTargetContent(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	s := New(r, Config{Strategy: StrategyRenderTarget, Size: 16}, nil)

	tex, err := s.Synthesize(uniformDataset(t, 4, 4, 255))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	img := tex.Image()
	off := img.PixOffset(8, 8)
	if img.Pix[off] != 255 || img.Pix[off+1] != 235 || img.Pix[off+2] != 59 {
		t.Errorf("center pixel = %v, want the hot ramp color 255 235 59", img.Pix[off:off+4])
	}
}

func TestSynthesizeTransparentWhereNoData(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	empty := uniformDataset(t, 4, 4, 0)

	for _, tc := range []struct {
		name     string
		strategy Strategy
	}{
		{"render target", StrategyRenderTarget},
		{"direct buffer", StrategyDirectBuffer},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := New(r, Config{Strategy: tc.strategy, Size: 8}, nil)
			tex, err := s.Synthesize(empty)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			img := tex.Image()
			for _, p := range [][2]int{{0, 0}, {4, 4}, {7, 7}} {
				off := img.PixOffset(p[0], p[1])
				if img.Pix[off+3] != 0 {
					t.Errorf("texel (%d,%d) = %v, want zero alpha",
						p[0], p[1], img.Pix[off:off+4])
				}
			}
		})
	}
}

func TestSynthesizeRestoresClearColor(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	c := render.Color{R: 10, G: 20, B: 30, A: 255}
	r.SetClearColor(c)

	s := New(r, Config{Size: 16}, nil)
	if _, err := s.Synthesize(uniformDataset(t, 4, 4, 255)); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if r.ClearColor() != c {
		t.Errorf("clear color = %+v, want %+v restored after synthesis", r.ClearColor(), c)
	}
}

func TestSynthesizeCachesPerDataset(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	s := New(r, Config{Strategy: StrategyDirectBuffer, Size: 8}, nil)

	ds := uniformDataset(t, 4, 4, 128)
	first, err := s.Synthesize(ds)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	second, err := s.Synthesize(ds)
	if err != nil {
		t.Fatalf("Synthesize again: %v", err)
	}
	if first != second {
		t.Errorf("same dataset synthesized twice, want cached texture")
	}

	other, err := s.Synthesize(uniformDataset(t, 4, 4, 128))
	if err != nil {
		t.Fatalf("Synthesize other: %v", err)
	}
	if other == first {
		t.Errorf("distinct dataset returned cached texture")
	}
}

func TestSynthesizeRestoresTargetBinding(t *testing.T) {
	r := render.NewRenderer(64, 64, nil)
	prev := render.NewTarget(10, 10)
	r.SetTarget(prev)

	s := New(r, Config{Size: 16}, nil)
	if _, err := s.Synthesize(uniformDataset(t, 4, 4, 255)); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if r.Target() != prev {
		t.Errorf("target binding not restored after synthesis")
	}

	bad := New(r, Config{Size: -1}, nil)
	if _, err := bad.Synthesize(uniformDataset(t, 4, 4, 255)); !errors.Is(err, ErrTextureSynthesis) {
		t.Fatalf("invalid size error = %v, want ErrTextureSynthesis", err)
	}
	if r.Target() != prev {
		t.Errorf("target binding changed by failed synthesis")
	}
}

func TestSynthesizeNilDataset(t *testing.T) {
	s := New(render.NewRenderer(64, 64, nil), Config{}, nil)
	if _, err := s.Synthesize(nil); !errors.Is(err, ErrTextureSynthesis) {
		t.Errorf("nil dataset error = %v, want ErrTextureSynthesis", err)
	}
}

func TestParseStrategy(t *testing.T) {
	if got := ParseStrategy("buffer"); got != StrategyDirectBuffer {
		t.Errorf("ParseStrategy(buffer) = %v", got)
	}
	if got := ParseStrategy("target"); got != StrategyRenderTarget {
		t.Errorf("ParseStrategy(target) = %v", got)
	}
	if got := ParseStrategy(""); got != StrategyRenderTarget {
		t.Errorf("ParseStrategy(empty) = %v", got)
	}
}
