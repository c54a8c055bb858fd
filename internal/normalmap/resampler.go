// Package normalmap bends vertex normals by per-material tangent-space
// normal maps before distance sampling.
package normalmap

import (
	"image"
	"math"

	"go.uber.org/zap"

	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/texture"
)

// DetectSamples bounds the vertices scored when auto-detecting packing.
const DetectSamples = 64

// Entry attaches a normal map to one material.
type Entry struct {
	Material  string
	Path      string       // resolved through a texture.Resolver when Image is nil
	Image     *image.NRGBA // optional preloaded map
	Intensity float64      // scales tangent-space X/Y
	Packed    *bool        // true: X in alpha (AG); nil: auto-detect
	Strength  float64      // blend weight; negative flips X/Y
}

// Resampler resolves per-material normal maps for one bake.
type Resampler struct {
	entries map[string]*Entry
	buf     *geometry.Buffers
	log     *zap.Logger

	packing map[string]bool // detected or explicit, per material
}

// NewResampler indexes entries by material and loads their maps. An entry
// whose map cannot be loaded is dropped with a warning, so that material
// keeps its original normals. textures may be nil when every entry carries
// an Image.
func NewResampler(entries []Entry, buf *geometry.Buffers, textures texture.Resolver, log *zap.Logger) *Resampler {
	r := &Resampler{
		entries: make(map[string]*Entry, len(entries)),
		buf:     buf,
		log:     logger.OrNop(log),
		packing: make(map[string]bool),
	}
	for i := range entries {
		e := entries[i]
		if e.Image == nil {
			if textures == nil || e.Path == "" {
				r.log.Warn("normal map has no image", zap.String("material", e.Material))
				continue
			}
			img, err := textures.Load(e.Path)
			if err != nil {
				r.log.Warn("normal map unreadable, keeping original normals",
					zap.String("material", e.Material), zap.Error(err))
				continue
			}
			e.Image = img
		}
		if e.Image.Rect.Empty() {
			r.log.Warn("normal map is empty", zap.String("material", e.Material))
			continue
		}
		if _, dup := r.entries[e.Material]; dup {
			r.log.Warn("duplicate normal map entry ignored", zap.String("material", e.Material))
			continue
		}
		r.entries[e.Material] = &e
	}
	return r
}

// Len returns the number of usable entries.
func (r *Resampler) Len() int {
	return len(r.entries)
}

// Resample returns the world-space normal for vertex after applying the
// material's normal map. The original normal is returned when the material
// has no map, the strength is zero, or the result is degenerate.
func (r *Resampler) Resample(material string, uv mathutil.Vec2, normal mathutil.Vec3, vertex int) mathutil.Vec3 {
	e, ok := r.entries[material]
	if !ok || e.Strength == 0 {
		return normal
	}
	packed := r.Packing(material)
	mapped, ok := r.mapped(e, packed, uv, normal, vertex)
	if !ok {
		return normal
	}
	out := normal.Lerp(mapped, mathutil.Clamp01(math.Abs(e.Strength))).Normalize()
	if out == (mathutil.Vec3{}) || !out.IsFinite() {
		return normal
	}
	return out
}

// Packing reports whether material's map stores X in alpha. Unset entries
// are detected once and cached.
func (r *Resampler) Packing(material string) bool {
	if p, ok := r.packing[material]; ok {
		return p
	}
	e, ok := r.entries[material]
	if !ok {
		return false
	}
	var p bool
	if e.Packed != nil {
		p = *e.Packed
	} else {
		p = r.detect(e)
		r.log.Debug("normal map packing detected",
			zap.String("material", material), zap.Bool("packed", p))
	}
	r.packing[material] = p
	return p
}

// detect scores both channel layouts on evenly strided vertices of the
// material by mean alignment with the original normals. Ties favor RG.
func (r *Resampler) detect(e *Entry) bool {
	var verts []int
	for v := 0; v < r.buf.Len(); v++ {
		if r.buf.MaterialName(v) == e.Material {
			verts = append(verts, v)
		}
	}
	if len(verts) == 0 {
		return false
	}
	stride := 1
	if len(verts) > DetectSamples {
		stride = len(verts) / DetectSamples
	}

	var scoreRG, scoreAG float64
	n := 0
	for i := 0; i < len(verts) && n < DetectSamples; i += stride {
		v := verts[i]
		nrm := r.buf.Normals[v]
		if rg, ok := r.mapped(e, false, r.buf.UVs[v], nrm, v); ok {
			scoreRG += nrm.Dot(rg)
		}
		if ag, ok := r.mapped(e, true, r.buf.UVs[v], nrm, v); ok {
			scoreAG += nrm.Dot(ag)
		}
		n++
	}
	return scoreAG/float64(n) > scoreRG/float64(n)
}

// mapped decodes the tangent-space sample and moves it to world space.
func (r *Resampler) mapped(e *Entry, packed bool, uv mathutil.Vec2, normal mathutil.Vec3, vertex int) (mathutil.Vec3, bool) {
	if vertex < 0 || vertex >= len(r.buf.Tangents) {
		return normal, false
	}
	if math.IsNaN(uv[0]) || math.IsNaN(uv[1]) || math.IsInf(uv[0], 0) || math.IsInf(uv[1], 0) {
		return normal, false
	}
	s := texture.Sample(e.Image, uv)
	xc := s[0]
	if packed {
		xc = s[3]
	}
	x := (xc*2 - 1) * e.Intensity
	y := (s[1]*2 - 1) * e.Intensity
	if e.Strength < 0 {
		x, y = -x, -y
	}
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))

	t := r.buf.Tangents[vertex]
	tangent := t.XYZ()
	bitangent := normal.Cross(tangent).Scale(t.Handedness())

	world := tangent.Scale(x).Add(bitangent.Scale(y)).Add(normal.Scale(z)).Normalize()
	if world == (mathutil.Vec3{}) || !world.IsFinite() {
		return normal, false
	}
	return world, true
}
