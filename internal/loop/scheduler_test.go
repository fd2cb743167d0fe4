package loop

import (
	"context"
	"testing"
	"time"

	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/scene"
	"geo-overlay-viewer/internal/state"
)

func newTestScheduler() (*Scheduler, *render.Renderer, *scene.Composer, *state.ViewState) {
	r := render.NewRenderer(32, 32, nil)
	c := scene.NewComposer(scene.Options{Segments: 8}, nil)
	cam := render.NewPerspectiveCamera(60, 1, 0.1, 100)
	st := state.New()
	return NewScheduler(r, c, cam, st, nil), r, c, st
}

func TestTickRequiresStart(t *testing.T) {
	s, r, _, _ := newTestScheduler()

	s.Tick(time.Now())
	if r.Frames() != 0 || s.Ticks() != 0 {
		t.Errorf("tick before Start drew a frame: frames=%d ticks=%d", r.Frames(), s.Ticks())
	}

	s.Start(time.Now())
	s.Tick(time.Now())
	if r.Frames() != 1 || s.Ticks() != 1 {
		t.Errorf("after Start: frames=%d ticks=%d, want 1, 1", r.Frames(), s.Ticks())
	}

	s.Stop()
	s.Tick(time.Now())
	if r.Frames() != 1 || s.Ticks() != 1 {
		t.Errorf("tick after Stop drew a frame: frames=%d ticks=%d", r.Frames(), s.Ticks())
	}
}

func TestOneDrawPerTick(t *testing.T) {
	s, r, _, _ := newTestScheduler()
	s.Start(time.Now())

	for i := 0; i < 5; i++ {
		s.Tick(time.Now())
	}
	if r.Frames() != 5 {
		t.Errorf("frames = %d after 5 ticks, want 5", r.Frames())
	}
}

func TestTickSyncsStateIntoScene(t *testing.T) {
	s, _, c, st := newTestScheduler()
	s.Start(time.Now())

	base := c.Mesh("base")
	if base == nil {
		t.Fatal("no base mesh")
	}

	st.SetLayer("base", false)
	s.Tick(time.Now())
	if base.Visible {
		t.Errorf("base mesh still visible after state hid it")
	}

	st.SetLayer("base", true)
	st.SetScale(10, 1, 0.01)
	s.Tick(time.Now())
	if !base.Visible {
		t.Errorf("base mesh still hidden after state showed it")
	}

	overlay := c.Mesh("methane")
	if overlay == nil {
		t.Fatal("no overlay mesh")
	}
	if overlay.Scale[0] != 5 || overlay.Scale[2] != 0.1 {
		t.Errorf("overlay scale = %v, want clamped (5, 1, 0.1)", overlay.Scale)
	}
}

func TestElapsed(t *testing.T) {
	s, _, _, _ := newTestScheduler()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.Start(t0)
	s.Tick(t0.Add(16 * time.Millisecond))
	if got := s.Elapsed(); got != 16*time.Millisecond {
		t.Errorf("Elapsed = %v, want 16ms", got)
	}
	s.Tick(t0.Add(32 * time.Millisecond))
	if got := s.Elapsed(); got != 32*time.Millisecond {
		t.Errorf("Elapsed = %v, want 32ms", got)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s, _, _, _ := newTestScheduler()
	t0 := time.Now()

	s.Start(t0)
	s.Start(t0.Add(time.Hour)) // ignored, already running
	s.Tick(t0.Add(time.Second))
	if got := s.Elapsed(); got != time.Second {
		t.Errorf("second Start reset the epoch: elapsed = %v", got)
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Errorf("still running after Stop")
	}
}

func TestRunStopsOnContextDone(t *testing.T) {
	s, r, _, _ := newTestScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	s.Run(ctx, time.Millisecond)

	if s.Running() {
		t.Errorf("scheduler still running after Run returned")
	}
	if r.Frames() == 0 {
		t.Errorf("Run drew no frames")
	}
}
