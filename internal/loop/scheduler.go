// Package loop drives the per-frame update: state is pulled into the
// scene, then the scene is drawn, exactly once per tick.
package loop

import (
	"context"
	"log/slog"
	"time"

	"geo-overlay-viewer/internal/render"
	"geo-overlay-viewer/internal/scene"
	"geo-overlay-viewer/internal/state"
)

// Scheduler owns the frame cadence. It has an explicit lifecycle:
// ticks between Start and Stop draw, ticks outside that window are
// no-ops. The host (window event loop or a manual driver) calls Tick;
// Run is a convenience driver for headless use.
type Scheduler struct {
	renderer *render.Renderer
	composer *scene.Composer
	camera   render.Camera
	st       *state.ViewState
	logger   *slog.Logger

	running   bool
	started   time.Time
	lastTick  time.Time
	ticks     int64
	drawFails int64
}

// NewScheduler wires a scheduler to the scene it drives.
func NewScheduler(renderer *render.Renderer, composer *scene.Composer, camera render.Camera, st *state.ViewState, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		renderer: renderer,
		composer: composer,
		camera:   camera,
		st:       st,
		logger:   logger,
	}
}

// Start arms the scheduler. Idempotent.
func (s *Scheduler) Start(now time.Time) {
	if s.running {
		return
	}
	s.running = true
	s.started = now
	s.lastTick = now
	s.logger.Info("render loop started")
}

// Stop disarms the scheduler. Subsequent ticks draw nothing. Idempotent.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.logger.Info("render loop stopped", "ticks", s.ticks, "draw_failures", s.drawFails)
}

// Running reports whether ticks currently draw.
func (s *Scheduler) Running() bool {
	return s.running
}

// Ticks returns the number of frames drawn since construction.
func (s *Scheduler) Ticks() int64 {
	return s.ticks
}

// Elapsed returns the monotonic time since Start as of the last tick.
func (s *Scheduler) Elapsed() time.Duration {
	return s.lastTick.Sub(s.started)
}

// Tick runs one frame: sync layer visibility from state, apply the
// scale factors, draw. A draw failure is logged and counted, never
// propagated, so one bad frame cannot stop the loop.
func (s *Scheduler) Tick(now time.Time) {
	if !s.running {
		return
	}
	s.lastTick = now

	s.composer.SyncVisibility(s.st.Layers)
	s.composer.ApplyScale(s.st.Scale)

	if err := s.renderer.Render(s.composer.Scene(), s.camera, nil); err != nil {
		s.drawFails++
		s.logger.Error("frame draw failed", "error", err, "tick", s.ticks)
		return
	}
	s.ticks++
}

// Run starts the scheduler and ticks at the given interval until the
// context is done, then stops. Used by headless drivers; windowed hosts
// call Start/Tick/Stop from their own event loop instead.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second / 30
	}
	s.Start(time.Now())
	defer s.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}
