package bake

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"fur-mask-baker/internal/bonemask"
	"fur-mask-baker/internal/bvh"
	"fur-mask-baker/internal/distance"
	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/mask"
	"fur-mask-baker/internal/normalmap"
	"fur-mask-baker/internal/raster"
	"fur-mask-baker/internal/uvisland"
)

// State is a bake session's lifecycle stage.
type State int32

const (
	Idle State = iota
	Preparing
	Sampling
	Finishing
	Completed
	Cancelled
)

var stateNames = [...]string{"idle", "preparing", "sampling", "finishing", "completed", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further ticks will do work.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled
}

// Session owns all mutable state of one bake. Step, Attach and Run drive it
// from a single goroutine; Cancel, State, Err and LiveTemporaries may be
// called from any goroutine.
type Session struct {
	req Request
	log *zap.Logger

	state     atomic.Int32
	cancelReq atomic.Bool
	live      atomic.Int32

	errMu sync.Mutex
	err   error

	buf    *geometry.Buffers
	proxy  *geometry.Proxy
	tree   *bvh.Tree
	job    *distance.Job
	detach func()
}

// NewSession validates req. Nothing is allocated until the first Step.
func NewSession(req Request) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		req: req,
		log: logger.OrNop(req.Log).Named("bake"),
	}, nil
}

// State returns the current stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Err returns the failure that cancelled the session, if any. A plain
// Cancel leaves it nil.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// LiveTemporaries returns the number of temporary geometry objects the
// session currently holds.
func (s *Session) LiveTemporaries() int {
	return int(s.live.Load())
}

// Cancel requests cancellation; it takes effect at the next tick.
func (s *Session) Cancel() {
	s.cancelReq.Store(true)
}

// Step advances the session by one tick and reports whether more ticks are
// needed. Idle prepares, each Sampling tick runs one distance batch, and
// Finishing rasterizes and delivers the textures.
func (s *Session) Step() bool {
	st := s.State()
	if st.Terminal() {
		return false
	}
	if s.cancelReq.Load() {
		s.cancel(nil)
		return false
	}

	var textures map[string]*image.NRGBA
	err := s.guard(st, func() error {
		switch st {
		case Idle:
			s.setState(Preparing)
			if err := s.prepare(); err != nil {
				return err
			}
			s.setState(Sampling)
		case Sampling:
			if !s.job.Step() {
				s.setState(Finishing)
			}
		case Finishing:
			textures = s.finish()
		}
		return nil
	})
	if err != nil {
		s.log.Error("bake failed", zap.Stringer("state", s.State()), zap.Error(err))
		s.cancel(err)
		return false
	}
	if textures == nil {
		return true
	}

	s.release()
	s.setState(Completed)
	s.log.Info("bake completed", zap.Int("textures", len(textures)))
	s.req.OnCompleted(textures)
	return false
}

// guard runs fn, converting a panic into an error.
func (s *Session) guard(st State, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bake: panic during %s: %v", st, r)
		}
	}()
	return fn()
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) cancel(err error) {
	s.release()
	if err != nil {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
	}
	s.setState(Cancelled)
	s.log.Info("bake cancelled", zap.Error(err))
	if s.req.OnCancelled != nil {
		s.req.OnCancelled()
	}
}

func (s *Session) prepare() error {
	req := &s.req

	s.buf = geometry.NewBuffers()
	s.live.Add(1)

	resolver := bonemask.NewResolver(req.Graph, req.Bones, s.log)
	if n := s.buf.AppendSurfaces(req.Skin, resolver, s.log); n == 0 {
		return ErrNoSkinGeometry
	}
	s.buf.Subdivide(req.Subdivisions)
	weld := geometry.Weld(s.buf.Positions, geometry.DefaultWeldTolerance)

	var skipped int
	s.proxy, skipped = geometry.BuildProxy(req.Cloth)
	s.live.Add(1)
	if skipped > 0 {
		s.log.Warn("skipped empty cloth surfaces", zap.Int("count", skipped))
	}
	anchors := s.carveIslands(weld)

	tris := make([]bvh.Triangle, len(s.proxy.Triangles))
	for i, t := range s.proxy.Triangles {
		tris[i] = bvh.Triangle(t)
	}
	s.tree = bvh.Build(tris)
	s.live.Add(1)

	normals := normalmap.NewResampler(req.NormalMaps, s.buf, req.Textures, s.log)
	var src distance.NormalSource
	if normals.Len() > 0 {
		src = normals
	}
	s.job = distance.NewJob(distance.Input{
		Buffers: s.buf,
		Proxy:   s.tree,
		Normals: src,
		Anchors: anchors,
		Weld:    weld,
	}, req.samplingOptions())
	s.live.Add(1)

	s.log.Info("bake prepared",
		zap.Int("vertices", s.buf.Len()),
		zap.Int("triangles", s.buf.TriangleCount()),
		zap.Int("proxy_triangles", s.tree.Len()),
		zap.Int("anchors", len(anchors)),
		zap.Int("batch_size", s.job.BatchSize()))
	return nil
}

// carveIslands adds every UV island's triangles to the proxy and returns
// the island vertices as distance anchors.
func (s *Session) carveIslands(weld []int) []int {
	var anchors []int
	for i := range s.req.Islands {
		m := &s.req.Islands[i]
		g := s.buf.FindGroup(m.SurfacePath, m.Submesh)
		if g < 0 {
			s.log.Warn("uv island surface not found",
				zap.String("surface", m.SurfacePath), zap.Int("submesh", m.Submesh))
			continue
		}
		idx := s.buf.Groups[g].Indices
		tris := uvisland.Segment(idx, s.buf.UVs, weld, m.Seed, m.EffectiveThreshold())
		s.proxy.AddGroupTriangles(s.buf, g, tris)
		anchors = append(anchors, uvisland.Vertices(idx, tris)...)
		s.log.Debug("uv island carved",
			zap.String("label", m.Label), zap.Int("triangles", len(tris)))
	}
	return anchors
}

func (s *Session) finish() map[string]*image.NRGBA {
	req := &s.req
	distances := s.job.Finish()
	values := mask.VertexValues(s.buf, mask.Inputs{
		Distances:   distances,
		MaxDistance: req.MaxDistance,
		Spheres:     req.Spheres,
		Mode:        req.Combine,
	})
	gamma := req.Gamma
	if gamma == 0 {
		gamma = 1
	}
	return raster.Compose(s.buf, values, raster.ComposeOptions{
		Size:        raster.ResolutionSize(req.Resolution),
		Gamma:       gamma,
		Transparent: req.Transparent,
		PadRadius:   req.PadRadius,
	})
}

// release destroys every temporary and detaches from the host hook.
func (s *Session) release() {
	if s.job != nil {
		s.job.Release()
		s.job = nil
		s.live.Add(-1)
	}
	if s.tree != nil {
		s.tree.Release()
		s.tree = nil
		s.live.Add(-1)
	}
	if s.proxy != nil {
		s.proxy.Release()
		s.proxy = nil
		s.live.Add(-1)
	}
	if s.buf != nil {
		s.buf.Release()
		s.buf = nil
		s.live.Add(-1)
	}
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

// Attach registers the session's tick with h. The tick unregisters itself
// once the session reaches a terminal state.
func (s *Session) Attach(h Hook) {
	s.detach = h.Register(func() {
		if !s.Step() && s.detach != nil {
			s.detach()
			s.detach = nil
		}
	})
}

// Run ticks the session until it finishes. Cancelling ctx cancels the bake.
func (s *Session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.Cancel()
		}
		if !s.Step() {
			break
		}
	}
	if s.State() == Completed {
		return nil
	}
	if err := s.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrCancelled
}
