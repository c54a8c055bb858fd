package geometry

import (
	"errors"
	"math"
	"testing"

	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/mesh"
)

type constBones float64

func (c constBones) VertexValue(bones [4]int, weights [4]float32) float64 {
	return float64(c)
}

func TestAppendSurfaceQuad(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	if b.Len() != 4 {
		t.Errorf("expected 4 vertices, got %d", b.Len())
	}
	if b.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", b.TriangleCount())
	}
	if len(b.Groups) != 1 || b.Groups[0].Material != "skin" {
		t.Fatalf("unexpected groups: %+v", b.Groups)
	}
	for v := 0; v < b.Len(); v++ {
		if b.MaterialName(v) != "skin" {
			t.Errorf("vertex %d: expected material skin, got %q", v, b.MaterialName(v))
		}
		if b.BoneMask[v] != 0 {
			t.Errorf("vertex %d: expected bone mask 0 for unskinned surface, got %f", v, b.BoneMask[v])
		}
	}
}

func TestAppendSurfaceWorldTransform(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	q.World = mathutil.FromMat3Translation(mathutil.Mat3Diag(2, 2, 2), mathutil.Vec3{0, 0, 5})
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	want := mathutil.Vec3{2, 2, 5}
	if b.Positions[2] != want {
		t.Errorf("expected %v, got %v", want, b.Positions[2])
	}
	if math.Abs(b.Normals[0].Len()-1) > 1e-9 {
		t.Errorf("expected unit normal, got length %f", b.Normals[0].Len())
	}
}

func TestAppendSurfaceSkinned(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	q.Bones = []int{3}
	q.Joints = make([][4]int, 4)
	q.Weights = make([][4]float32, 4)
	for i := range q.Weights {
		q.Weights[i] = [4]float32{1, 0, 0, 0}
	}
	if err := b.AppendSurface(&q, constBones(0.25)); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	if b.BoneMask[0] != 0.25 {
		t.Errorf("expected bone mask 0.25, got %f", b.BoneMask[0])
	}
}

func TestAppendSurfaceRejects(t *testing.T) {
	b := NewBuffers()
	empty := mesh.Surface{Path: "empty"}
	if err := b.AppendSurface(&empty, nil); !errors.Is(err, ErrEmptySurface) {
		t.Errorf("expected ErrEmptySurface, got %v", err)
	}

	noUV := mesh.Quad("nouv", "skin", 1)
	noUV.UVs = nil
	if err := b.AppendSurface(&noUV, nil); !errors.Is(err, ErrNoUVs) {
		t.Errorf("expected ErrNoUVs, got %v", err)
	}

	bad := mesh.Quad("bad", "skin", 1)
	bad.Submeshes[0].Indices = []int{0, 0, 1, 7, 8, 9}
	if err := b.AppendSurface(&bad, nil); !errors.Is(err, ErrEmptySurface) {
		t.Errorf("expected ErrEmptySurface for invalid triangles, got %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("expected rollback to 0 vertices, got %d", b.Len())
	}
}

func TestAppendSurfacesSkipsBad(t *testing.T) {
	b := NewBuffers()
	surfaces := []mesh.Surface{
		{Path: "empty"},
		mesh.Quad("a", "skin", 1),
		mesh.Grid("b", "fur", 1, 2, 0),
	}
	if got := b.AppendSurfaces(surfaces, nil, nil); got != 2 {
		t.Errorf("expected 2 surfaces appended, got %d", got)
	}
	if b.Len() != 4+9 {
		t.Errorf("expected 13 vertices, got %d", b.Len())
	}
	if b.FindGroup("b", 0) != 1 {
		t.Errorf("expected group 1 for surface b, got %d", b.FindGroup("b", 0))
	}
	if b.FindGroup("missing", 0) != -1 {
		t.Error("expected -1 for missing group")
	}
}

func TestMissingNormalsAndTangentsGenerated(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	q.Normals = nil
	q.Tangents = nil
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	for v := 0; v < b.Len(); v++ {
		if math.Abs(b.Normals[v][2]-1) > 1e-9 {
			t.Errorf("vertex %d: expected +Z normal, got %v", v, b.Normals[v])
		}
		if math.Abs(b.Tangents[v][0]-1) > 1e-9 || b.Tangents[v][3] != 1 {
			t.Errorf("vertex %d: expected tangent (1,0,0,1), got %v", v, b.Tangents[v])
		}
	}
}

func TestComputeTangentsMirroredUV(t *testing.T) {
	pos := []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	uvs := []mathutil.Vec2{{1, 0}, {0, 0}, {1, 1}}
	nrm := []mathutil.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	tan := ComputeTangents(pos, uvs, nrm, []int{0, 1, 2})
	if math.Abs(tan[0][0]+1) > 1e-9 {
		t.Errorf("expected tangent -X, got %v", tan[0])
	}
	if tan[0][3] != -1 {
		t.Errorf("expected handedness -1, got %f", tan[0][3])
	}
}

func TestSubdivideCounts(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	b.Subdivide(1)
	if b.TriangleCount() != 8 {
		t.Errorf("expected 8 triangles, got %d", b.TriangleCount())
	}
	// 4 corners + 5 unique edges (4 sides + shared diagonal).
	if b.Len() != 9 {
		t.Errorf("expected 9 vertices after one level, got %d", b.Len())
	}
}

func TestSubdivideClamped(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	b.Subdivide(10)
	if want := 2 * 64; b.TriangleCount() != want {
		t.Errorf("expected %d triangles, got %d", want, b.TriangleCount())
	}
	before := b.TriangleCount()
	b.Subdivide(-1)
	if b.TriangleCount() != before {
		t.Error("negative subdivision should be a no-op")
	}
}

func TestSubdivideSharedEdgeMidpoint(t *testing.T) {
	b := NewBuffers()
	q := mesh.Quad("body", "skin", 1)
	// Split the quad into two submeshes so the diagonal crosses groups.
	q.Submeshes = []mesh.Submesh{
		{Indices: []int{0, 1, 2}, Material: "a"},
		{Indices: []int{0, 2, 3}, Material: "b"},
	}
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	b.Subdivide(1)

	diag := mathutil.Vec3{0.5, 0.5, 0}
	found := -1
	for v, p := range b.Positions {
		if p == diag {
			if found >= 0 {
				t.Fatalf("diagonal midpoint duplicated at %d and %d", found, v)
			}
			found = v
		}
	}
	if found < 0 {
		t.Fatal("diagonal midpoint not created")
	}
	uses := 0
	for _, g := range b.Groups {
		for _, i := range g.Indices {
			if i == found {
				uses++
				break
			}
		}
	}
	if uses != 2 {
		t.Errorf("expected both groups to reference the shared midpoint, got %d", uses)
	}
	if b.UVs[found] != (mathutil.Vec2{0.5, 0.5}) {
		t.Errorf("expected midpoint UV (0.5,0.5), got %v", b.UVs[found])
	}
}

func TestWeld(t *testing.T) {
	pos := []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}, {1, 0, 1e-9}}
	got := Weld(pos, 0)
	want := []int{0, 1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vertex %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestVertexNeighbors(t *testing.T) {
	groups := []TriangleGroup{{Indices: []int{0, 1, 2, 3, 2, 4}}}
	// Vertex 3 duplicates vertex 0.
	canon := []int{0, 1, 2, 0, 4}
	nb := VertexNeighbors(groups, canon)
	want := []int{1, 2, 4}
	if len(nb[0]) != len(want) {
		t.Fatalf("expected neighbors %v, got %v", want, nb[0])
	}
	for i := range want {
		if nb[0][i] != want[i] {
			t.Errorf("expected neighbors %v, got %v", want, nb[0])
		}
	}
	if nb[3] != nil {
		t.Errorf("expected nil for non-canonical vertex, got %v", nb[3])
	}
}

func TestBuildProxy(t *testing.T) {
	cloth := []mesh.Surface{mesh.Quad("shirt", "cloth", 1), {Path: "empty"}}
	p, skipped := BuildProxy(cloth)
	if p.Len() != 2 {
		t.Errorf("expected 2 triangles, got %d", p.Len())
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}

	b := NewBuffers()
	q := mesh.Grid("body", "skin", 1, 2, 0)
	if err := b.AppendSurface(&q, nil); err != nil {
		t.Fatalf("AppendSurface: %v", err)
	}
	if n := p.AddGroupTriangles(b, 0, []int{0, 3, 99}); n != 2 {
		t.Errorf("expected 2 island triangles added, got %d", n)
	}
	p.Release()
	if p.Len() != 0 {
		t.Error("expected empty proxy after Release")
	}
}
