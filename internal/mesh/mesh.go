// Package mesh describes the renderable surfaces handed to a bake.
package mesh

import "fur-mask-baker/internal/mathutil"

// Submesh is one triangle list drawn with a single material.
type Submesh struct {
	Indices  []int // flat triangle list, len%3 == 0
	Material string
}

// Surface is a renderable mesh instance placed in the scene.
// Attribute slices are indexed by local vertex index; Normals, UVs,
// Tangents, Joints and Weights may be nil.
type Surface struct {
	Path  string // hierarchy path of the owning node
	World mathutil.Mat4

	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	UVs       []mathutil.Vec2
	Tangents  []mathutil.Vec4

	// Joints index into Bones; Bones maps a skin joint to a hierarchy node ID.
	Joints  [][4]int
	Weights [][4]float32
	Bones   []int

	Submeshes []Submesh
}

// Skinned reports whether the surface carries usable skin weights.
func (s *Surface) Skinned() bool {
	return len(s.Bones) > 0 && len(s.Joints) == len(s.Positions) && len(s.Weights) == len(s.Positions)
}

// TriangleCount returns the number of whole triangles across all submeshes.
func (s *Surface) TriangleCount() int {
	n := 0
	for _, sm := range s.Submeshes {
		n += len(sm.Indices) / 3
	}
	return n
}

// Empty reports whether the surface has nothing to contribute.
func (s *Surface) Empty() bool {
	return len(s.Positions) == 0 || s.TriangleCount() == 0
}

// Quad builds a unit quad on the XY plane spanning UV [0,1]², two triangles,
// facing +Z. Used by tools and tests as the smallest valid surface.
func Quad(path, material string, size float64) Surface {
	return Surface{
		Path:  path,
		World: mathutil.Mat4Identity(),
		Positions: []mathutil.Vec3{
			{0, 0, 0}, {size, 0, 0}, {size, size, 0}, {0, size, 0},
		},
		Normals: []mathutil.Vec3{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		},
		UVs: []mathutil.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Tangents: []mathutil.Vec4{
			{1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, 1}, {1, 0, 0, 1},
		},
		Submeshes: []Submesh{{Indices: []int{0, 1, 2, 0, 2, 3}, Material: material}},
	}
}

// Grid builds an n×n cell plane on the XY plane at height z, facing +Z,
// with UVs spanning [0,1]².
func Grid(path, material string, size float64, n int, z float64) Surface {
	if n < 1 {
		n = 1
	}
	s := Surface{Path: path, World: mathutil.Mat4Identity()}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			u := float64(x) / float64(n)
			v := float64(y) / float64(n)
			s.Positions = append(s.Positions, mathutil.Vec3{u * size, v * size, z})
			s.Normals = append(s.Normals, mathutil.Vec3{0, 0, 1})
			s.UVs = append(s.UVs, mathutil.Vec2{u, v})
			s.Tangents = append(s.Tangents, mathutil.Vec4{1, 0, 0, 1})
		}
	}
	var idx []int
	row := n + 1
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := y*row + x
			idx = append(idx, a, a+1, a+row+1, a, a+row+1, a+row)
		}
	}
	s.Submeshes = []Submesh{{Indices: idx, Material: material}}
	return s
}
