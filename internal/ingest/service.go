// Package ingest loads georeferenced rasters from local paths or HTTP
// URLs and turns them into datasets with derived affine transforms.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"geo-overlay-viewer/internal/geotiff"
	"geo-overlay-viewer/internal/geotransform"
)

// ErrAssetUnavailable indicates the raster bytes could not be obtained:
// missing file, failed request or non-2xx response. Distinct from
// geotiff.ErrInvalidMetadata, which means the bytes arrived but do not
// describe a usable raster.
var ErrAssetUnavailable = errors.New("ingest: raster asset unavailable")

// State is the lifecycle of one raster handle.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Result pairs a decoded dataset with its pixel/geo transform.
type Result struct {
	Dataset   *geotiff.Dataset
	Transform *geotransform.GeoTransform
}

// Service loads rasters asynchronously. Concurrent loads of the same
// handle are collapsed into a single fetch+decode; a load abandoned by
// its caller's context still runs to completion so the result is ready
// for the next request.
type Service struct {
	client *http.Client
	logger *slog.Logger
	group  singleflight.Group

	mu      sync.Mutex
	states  map[string]State
	results map[string]*Result
}

// NewService creates a service. A nil client gets a default with a
// 30-second timeout.
func NewService(client *http.Client, logger *slog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		logger:  logger,
		states:  make(map[string]State),
		results: make(map[string]*Result),
	}
}

// State returns the lifecycle state of a handle.
func (s *Service) State(handle string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[handle]
}

// Result returns the ready result for a handle, if any.
func (s *Service) Result(handle string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[handle]
	return r, ok
}

// Load obtains the dataset and transform for a handle, fetching and
// decoding at most once per handle across concurrent callers. The
// context governs only this caller's wait: cancellation returns
// ctx.Err() while the underlying load keeps running to completion.
func (s *Service) Load(ctx context.Context, handle string) (*Result, error) {
	s.mu.Lock()
	if r, ok := s.results[handle]; ok {
		s.mu.Unlock()
		return r, nil
	}
	s.states[handle] = StateLoading
	s.mu.Unlock()

	ch := s.group.DoChan(handle, func() (any, error) {
		r, err := s.load(handle)
		s.mu.Lock()
		if err != nil {
			s.states[handle] = StateFailed
		} else {
			s.states[handle] = StateReady
			s.results[handle] = r
		}
		s.mu.Unlock()
		return r, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	}
}

func (s *Service) load(handle string) (*Result, error) {
	start := time.Now()

	data, err := s.fetch(handle)
	if err != nil {
		s.logger.Error("raster fetch failed", "handle", handle, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAssetUnavailable, err)
	}

	ds, err := geotiff.Decode(data)
	if err != nil {
		s.logger.Error("raster decode failed", "handle", handle, "error", err)
		return nil, err
	}

	tr, err := geotransform.FromDataset(ds)
	if err != nil {
		s.logger.Error("transform derivation failed", "handle", handle, "error", err)
		return nil, err
	}

	s.logSanity(handle, ds, tr, time.Since(start))
	return &Result{Dataset: ds, Transform: tr}, nil
}

// logSanity records the decoded extent and verifies the transform
// round-trips at the raster center and at a seeded random interior
// point. A residual above tolerance is a red flag for bad
// georeferencing, logged loudly but not fatal.
func (s *Service) logSanity(handle string, ds *geotiff.Dataset, tr *geotransform.GeoTransform, took time.Duration) {
	residual := roundTripResidual(ds, tr)

	s.logger.Info("raster ingested",
		"handle", handle,
		"width", ds.Width, "height", ds.Height,
		"min_lon", ds.Bounds.MinLon, "min_lat", ds.Bounds.MinLat,
		"max_lon", ds.Bounds.MaxLon, "max_lat", ds.Bounds.MaxLat,
		"took", took)

	if residual > 1e-6 {
		s.logger.Warn("transform round-trip residual above tolerance",
			"handle", handle, "residual", residual)
	}
}

// roundTripResidual pushes the raster center and a seeded random
// interior point forward and back through the transform and returns
// the worst pixel deviation.
func roundTripResidual(ds *geotiff.Dataset, tr *geotransform.GeoTransform) float64 {
	rng := rand.New(rand.NewSource(1))
	points := [][2]float64{
		{float64(ds.Width) / 2, float64(ds.Height) / 2},
		{rng.Float64() * float64(ds.Width), rng.Float64() * float64(ds.Height)},
	}

	var worst float64
	for _, p := range points {
		lon, lat := tr.Forward(p[0], p[1])
		px, py := tr.Inverse(lon, lat)
		worst = math.Max(worst, math.Max(math.Abs(px-p[0]), math.Abs(py-p[1])))
	}
	return worst
}

// fetch resolves a handle to raw bytes. Handles starting with http://
// or https:// are fetched over the wire, anything else is a local path.
func (s *Service) fetch(handle string) ([]byte, error) {
	if !strings.HasPrefix(handle, "http://") && !strings.HasPrefix(handle, "https://") {
		return os.ReadFile(handle)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, handle, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", handle, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
