// Package bvh is a flattened bounding volume hierarchy over a static
// triangle soup, answering nearest-hit ray queries.
package bvh

import (
	"math"
	"sort"

	"fur-mask-baker/internal/mathutil"
)

// LeafSize is the maximum number of triangles stored in a leaf.
const LeafSize = 4

// Epsilon is the minimum accepted hit distance, so a ray never reports the
// surface it starts on.
const Epsilon = 1e-7

// Triangle is one world-space triangle.
type Triangle [3]mathutil.Vec3

// Node is one flattened tree node. The first child of an interior node is
// stored right after it; SecondChild holds the offset of the other.
type Node struct {
	Min, Max mathutil.Vec3

	IsLeaf bool

	TriangleOffset int
	TriangleCount  int

	SecondChild int
}

// Tree is an immutable BVH. The zero value holds no triangles.
type Tree struct {
	Nodes     []Node
	Triangles []Triangle
}

type buildItem struct {
	tri      Triangle
	centroid mathutil.Vec3
	min, max mathutil.Vec3
}

// Build constructs a tree with a median split on the longest centroid axis.
// Triangles with non-finite vertices are dropped.
func Build(tris []Triangle) *Tree {
	items := make([]buildItem, 0, len(tris))
	for _, t := range tris {
		if !t[0].IsFinite() || !t[1].IsFinite() || !t[2].IsFinite() {
			continue
		}
		lo := t[0].Min(t[1]).Min(t[2])
		hi := t[0].Max(t[1]).Max(t[2])
		items = append(items, buildItem{
			tri:      t,
			centroid: t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3),
			min:      lo,
			max:      hi,
		})
	}
	tree := &Tree{}
	if len(items) == 0 {
		return tree
	}
	tree.Nodes = make([]Node, 0, 2*len(items)/LeafSize+1)
	tree.Triangles = make([]Triangle, 0, len(items))
	tree.build(items)
	return tree
}

func (t *Tree) build(items []buildItem) {
	lo, hi := items[0].min, items[0].max
	clo, chi := items[0].centroid, items[0].centroid
	for _, it := range items[1:] {
		lo, hi = lo.Min(it.min), hi.Max(it.max)
		clo, chi = clo.Min(it.centroid), chi.Max(it.centroid)
	}

	ptr := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Min: lo, Max: hi})

	extent := chi.Sub(clo)
	if len(items) <= LeafSize || (extent[0] == 0 && extent[1] == 0 && extent[2] == 0) {
		t.Nodes[ptr].IsLeaf = true
		t.Nodes[ptr].TriangleOffset = len(t.Triangles)
		t.Nodes[ptr].TriangleCount = len(items)
		for _, it := range items {
			t.Triangles = append(t.Triangles, it.tri)
		}
		return
	}

	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].centroid[axis] < items[j].centroid[axis]
	})
	mid := len(items) / 2

	t.build(items[:mid])
	t.Nodes[ptr].SecondChild = len(t.Nodes)
	t.build(items[mid:])
}

// Len returns the number of triangles in the tree.
func (t *Tree) Len() int {
	return len(t.Triangles)
}

// Release drops the node and triangle arrays.
func (t *Tree) Release() {
	t.Nodes = nil
	t.Triangles = nil
}

// Intersect returns the distance to the nearest triangle hit along dir
// (which must be unit length) within (Epsilon, tMax]. Both faces count.
func (t *Tree) Intersect(origin, dir mathutil.Vec3, tMax float64) (float64, bool) {
	if len(t.Nodes) == 0 || tMax <= Epsilon {
		return 0, false
	}
	var inv mathutil.Vec3
	for i := 0; i < 3; i++ {
		inv[i] = 1 / dir[i]
	}

	var stackBuf [64]int
	stack := stackBuf[:0]
	stack = append(stack, 0)

	best := tMax
	hit := false
	for len(stack) > 0 {
		ptr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[ptr]

		if _, ok := slab(node, origin, dir, inv, best); !ok {
			continue
		}
		if node.IsLeaf {
			for i := 0; i < node.TriangleCount; i++ {
				tri := &t.Triangles[node.TriangleOffset+i]
				if d, ok := intersectTriangle(origin, dir, tri); ok && d > Epsilon && d <= best {
					best = d
					hit = true
				}
			}
			continue
		}

		// Visit the nearer child first.
		a, b := ptr+1, node.SecondChild
		da, oka := slab(&t.Nodes[a], origin, dir, inv, best)
		db, okb := slab(&t.Nodes[b], origin, dir, inv, best)
		if oka && okb && db < da {
			a, b = b, a
			oka, okb = okb, oka
		}
		if okb {
			stack = append(stack, b)
		}
		if oka {
			stack = append(stack, a)
		}
	}
	if !hit {
		return 0, false
	}
	return best, true
}

// slab returns the entry distance of the ray into the node box, clipped to
// [0, tMax].
func slab(n *Node, origin, dir, inv mathutil.Vec3, tMax float64) (float64, bool) {
	tMin := 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < n.Min[i] || origin[i] > n.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (n.Min[i] - origin[i]) * inv[i]
		t2 := (n.Max[i] - origin[i]) * inv[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// intersectTriangle is Möller–Trumbore without back-face culling.
func intersectTriangle(origin, dir mathutil.Vec3, tri *Triangle) (float64, bool) {
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-14 {
		return 0, false
	}
	invDet := 1 / det
	s := origin.Sub(tri[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	return e2.Dot(q) * invDet, true
}
