// Package bake runs one fur mask bake as an explicit state machine that a
// host advances one tick at a time.
package bake

import (
	"errors"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"

	"fur-mask-baker/internal/bonemask"
	"fur-mask-baker/internal/distance"
	"fur-mask-baker/internal/mask"
	"fur-mask-baker/internal/mesh"
	"fur-mask-baker/internal/normalmap"
	"fur-mask-baker/internal/texture"
	"fur-mask-baker/internal/uvisland"
)

var (
	// ErrNoSkinSurfaces is returned when a request lists no skin surfaces.
	ErrNoSkinSurfaces = errors.New("bake: no skin surfaces")
	// ErrNoCallback is returned when a request has no completion callback.
	ErrNoCallback = errors.New("bake: no completion callback")
	// ErrNoSkinGeometry ends a bake whose skin surfaces were all skipped.
	ErrNoSkinGeometry = errors.New("bake: skin surfaces produced no geometry")
	// ErrCancelled is returned by Run when the bake was cancelled.
	ErrCancelled = errors.New("bake: cancelled")
	// ErrInvalidRequest wraps out-of-range numeric settings.
	ErrInvalidRequest = errors.New("bake: invalid request")
)

// Request is everything one bake reads. Surfaces and mask collections are
// not modified.
type Request struct {
	Skin  []mesh.Surface
	Cloth []mesh.Surface

	Spheres    []mask.Sphere
	Islands    []uvisland.Mask
	Bones      map[string]float64 // hierarchy path → suppression weight
	Graph      bonemask.Graph
	NormalMaps []normalmap.Entry
	Textures   texture.Resolver // loads NormalMaps entries given by path

	Resolution          int // index into raster.Resolutions
	MaxDistance         float64
	Gamma               float64
	Subdivisions        int
	SmoothingIterations int
	Transparent         bool
	PadRadius           int
	Combine             mask.CombineMode

	// Sampling carries the ray and batching knobs; MaxDistance,
	// SmoothingIterations and Progress are filled in from the request.
	Sampling distance.Options

	OnCompleted func(textures map[string]*image.NRGBA)
	OnCancelled func()
	OnProgress  func(done, total int)

	Log *zap.Logger
}

// Validate checks the request without touching any geometry.
func (r *Request) Validate() error {
	if len(r.Skin) == 0 {
		return ErrNoSkinSurfaces
	}
	if r.OnCompleted == nil {
		return ErrNoCallback
	}
	if r.MaxDistance < 0 || math.IsNaN(r.MaxDistance) || math.IsInf(r.MaxDistance, 0) {
		return fmt.Errorf("%w: max distance %v", ErrInvalidRequest, r.MaxDistance)
	}
	if math.IsNaN(r.Gamma) || r.Gamma < 0 {
		return fmt.Errorf("%w: gamma %v", ErrInvalidRequest, r.Gamma)
	}
	if r.PadRadius < 0 {
		return fmt.Errorf("%w: pad radius %d", ErrInvalidRequest, r.PadRadius)
	}
	return nil
}

func (r *Request) samplingOptions() distance.Options {
	o := r.Sampling
	o.MaxDistance = r.MaxDistance
	o.SmoothingIterations = r.SmoothingIterations
	o.Progress = r.OnProgress
	return o
}
