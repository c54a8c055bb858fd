// Package geometry merges bake surfaces into flat world-space vertex and
// triangle arrays, subdivides them, and assembles the cloth proxy.
package geometry

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fur-mask-baker/internal/logger"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/mesh"
)

var (
	// ErrEmptySurface is returned for surfaces with no vertices or triangles.
	ErrEmptySurface = errors.New("geometry: surface has no geometry")
	// ErrNoUVs is returned for skin surfaces without texture coordinates.
	ErrNoUVs = errors.New("geometry: surface has no UVs")
)

// BoneValuer blends skin influences into one bone mask value.
type BoneValuer interface {
	VertexValue(bones [4]int, weights [4]float32) float64
}

// TriangleGroup is the triangle list of one (surface, submesh) pair, indexing
// into the owning Buffers.
type TriangleGroup struct {
	Indices     []int
	Material    string
	SurfacePath string
	Submesh     int
}

// Triangles returns the number of triangles in the group.
func (g *TriangleGroup) Triangles() int {
	return len(g.Indices) / 3
}

// Buffers holds every bake vertex as parallel arrays indexed by vertex ID.
// Entries are only ever appended.
type Buffers struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	UVs       []mathutil.Vec2
	Tangents  []mathutil.Vec4
	BoneMask  []float64
	Material  []int // index into Materials

	Materials []string
	Groups    []TriangleGroup

	materialIDs map[string]int
}

// NewBuffers returns empty buffers.
func NewBuffers() *Buffers {
	return &Buffers{materialIDs: make(map[string]int)}
}

// Len returns the vertex count.
func (b *Buffers) Len() int {
	return len(b.Positions)
}

// TriangleCount returns the triangle count across all groups.
func (b *Buffers) TriangleCount() int {
	n := 0
	for i := range b.Groups {
		n += b.Groups[i].Triangles()
	}
	return n
}

// MaterialName returns the material associated with vertex v.
func (b *Buffers) MaterialName(v int) string {
	if v < 0 || v >= len(b.Material) {
		return ""
	}
	return b.Materials[b.Material[v]]
}

// Release drops all arrays. The buffers are unusable afterwards.
func (b *Buffers) Release() {
	*b = Buffers{}
}

func (b *Buffers) materialID(name string) int {
	if b.materialIDs == nil {
		b.materialIDs = make(map[string]int)
	}
	if id, ok := b.materialIDs[name]; ok {
		return id
	}
	id := len(b.Materials)
	b.Materials = append(b.Materials, name)
	b.materialIDs[name] = id
	return id
}

// AppendSurfaces appends every surface in order, logging and skipping the
// ones that cannot contribute. It returns the number of surfaces appended.
func (b *Buffers) AppendSurfaces(surfaces []mesh.Surface, bones BoneValuer, log *zap.Logger) int {
	log = logger.OrNop(log)
	added := 0
	for i := range surfaces {
		if err := b.AppendSurface(&surfaces[i], bones); err != nil {
			log.Warn("skipping surface", zap.String("surface", surfaces[i].Path), zap.Error(err))
			continue
		}
		added++
	}
	return added
}

// AppendSurface transforms s into world space and appends its vertices and
// one TriangleGroup per non-empty submesh. Unskinned surfaces, or a nil
// bones, record a bone mask of 0.
func (b *Buffers) AppendSurface(s *mesh.Surface, bones BoneValuer) error {
	if s.Empty() {
		return ErrEmptySurface
	}
	n := len(s.Positions)
	if len(s.UVs) != n {
		return fmt.Errorf("%w: %s", ErrNoUVs, s.Path)
	}

	world := s.World
	if world == (mathutil.Mat4{}) {
		world = mathutil.Mat4Identity()
	}
	normalMat := world.Upper3().NormalMatrix()

	// Local copies of the attributes that may need generating.
	normals := s.Normals
	if len(normals) != n {
		normals = faceNormals(s)
	}
	tangents := s.Tangents
	if len(tangents) != n {
		tangents = ComputeTangents(s.Positions, s.UVs, normals, allIndices(s))
	}

	base := len(b.Positions)
	for i := 0; i < n; i++ {
		b.Positions = append(b.Positions, world.MulPoint(s.Positions[i]))

		nrm := normalMat.MulVec3(normals[i]).Normalize()
		b.Normals = append(b.Normals, nrm)
		b.UVs = append(b.UVs, s.UVs[i])

		t := tangents[i]
		tw := world.MulDir(t.XYZ()).Normalize()
		b.Tangents = append(b.Tangents, mathutil.Vec4{tw[0], tw[1], tw[2], t.Handedness()})

		bm := 0.0
		if bones != nil && s.Skinned() {
			bm = bones.VertexValue(jointNodes(s, i), s.Weights[i])
		}
		b.BoneMask = append(b.BoneMask, bm)
		b.Material = append(b.Material, -1)
	}

	var fallback = -1
	for smi, sm := range s.Submeshes {
		var idx []int
		for t := 0; t+2 < len(sm.Indices); t += 3 {
			i0, i1, i2 := sm.Indices[t], sm.Indices[t+1], sm.Indices[t+2]
			if !inRange(i0, n) || !inRange(i1, n) || !inRange(i2, n) {
				continue
			}
			if i0 == i1 || i1 == i2 || i0 == i2 {
				continue
			}
			idx = append(idx, base+i0, base+i1, base+i2)
		}
		if len(idx) == 0 {
			continue
		}

		mat := b.materialID(sm.Material)
		if fallback < 0 {
			fallback = mat
		}
		for _, v := range idx {
			if b.Material[v] < 0 {
				b.Material[v] = mat
			}
		}
		b.Groups = append(b.Groups, TriangleGroup{
			Indices:     idx,
			Material:    sm.Material,
			SurfacePath: s.Path,
			Submesh:     smi,
		})
	}

	if fallback < 0 {
		// Every triangle was invalid; roll back the vertices.
		b.truncate(base)
		return ErrEmptySurface
	}
	for v := base; v < len(b.Material); v++ {
		if b.Material[v] < 0 {
			b.Material[v] = fallback
		}
	}
	return nil
}

func (b *Buffers) truncate(n int) {
	b.Positions = b.Positions[:n]
	b.Normals = b.Normals[:n]
	b.UVs = b.UVs[:n]
	b.Tangents = b.Tangents[:n]
	b.BoneMask = b.BoneMask[:n]
	b.Material = b.Material[:n]
}

// FindGroup returns the index of the group for (surfacePath, submesh), or -1.
func (b *Buffers) FindGroup(surfacePath string, submesh int) int {
	for i := range b.Groups {
		if b.Groups[i].SurfacePath == surfacePath && b.Groups[i].Submesh == submesh {
			return i
		}
	}
	return -1
}

func jointNodes(s *mesh.Surface, v int) [4]int {
	var out [4]int
	for k := 0; k < 4; k++ {
		j := s.Joints[v][k]
		if j < 0 || j >= len(s.Bones) {
			out[k] = -1
			continue
		}
		out[k] = s.Bones[j]
	}
	return out
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

func allIndices(s *mesh.Surface) []int {
	var idx []int
	for _, sm := range s.Submeshes {
		idx = append(idx, sm.Indices[:len(sm.Indices)/3*3]...)
	}
	return idx
}

// faceNormals accumulates area-weighted face normals per vertex.
func faceNormals(s *mesh.Surface) []mathutil.Vec3 {
	n := len(s.Positions)
	out := make([]mathutil.Vec3, n)
	idx := allIndices(s)
	for t := 0; t+2 < len(idx); t += 3 {
		i0, i1, i2 := idx[t], idx[t+1], idx[t+2]
		if !inRange(i0, n) || !inRange(i1, n) || !inRange(i2, n) {
			continue
		}
		p0 := s.Positions[i0]
		fn := s.Positions[i1].Sub(p0).Cross(s.Positions[i2].Sub(p0))
		out[i0] = out[i0].Add(fn)
		out[i1] = out[i1].Add(fn)
		out[i2] = out[i2].Add(fn)
	}
	for i := range out {
		out[i] = out[i].Normalize()
	}
	return out
}
