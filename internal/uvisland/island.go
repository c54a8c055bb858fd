// Package uvisland finds connected UV islands on a triangle list by flood
// filling triangle adjacency from a seed UV coordinate.
package uvisland

import (
	"image/color"
	"math"
	"sort"

	"fur-mask-baker/internal/mathutil"
)

// DefaultThreshold is the UV gap below which two triangles sharing a
// geometric edge are considered connected.
const DefaultThreshold = 1e-3

// Mask selects the island under Seed on one submesh of one surface.
type Mask struct {
	SurfacePath string
	Submesh     int
	Seed        mathutil.Vec2
	Threshold   float64

	// Display metadata, used by the overlay only.
	Label string
	Color color.NRGBA
}

// EffectiveThreshold returns Threshold, or DefaultThreshold when unset.
func (m *Mask) EffectiveThreshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// Adjacency lists, per triangle, the sorted neighbor triangles reachable
// across a shared edge.
type Adjacency [][]int

// FindSeedTriangle returns the triangle whose UV footprint contains seed.
// When none does, the triangle with the nearest UV centroid is returned.
// It returns -1 when there are no triangles.
func FindSeedTriangle(indices []int, uvs []mathutil.Vec2, seed mathutil.Vec2) int {
	const eps = 1e-9
	best, bestDist := -1, math.Inf(1)
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := uvs[indices[t]], uvs[indices[t+1]], uvs[indices[t+2]]
		if w0, w1, w2, ok := barycentric(a, b, c, seed); ok &&
			w0 >= -eps && w1 >= -eps && w2 >= -eps {
			return t / 3
		}
		cx := (a[0] + b[0] + c[0]) / 3
		cy := (a[1] + b[1] + c[1]) / 3
		d := (cx-seed[0])*(cx-seed[0]) + (cy-seed[1])*(cy-seed[1])
		if d < bestDist {
			best, bestDist = t/3, d
		}
	}
	return best
}

func barycentric(a, b, c, p mathutil.Vec2) (w0, w1, w2 float64, ok bool) {
	den := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if math.Abs(den) < 1e-18 {
		return 0, 0, 0, false
	}
	w0 = ((b[1]-c[1])*(p[0]-c[0]) + (c[0]-b[0])*(p[1]-c[1])) / den
	w1 = ((c[1]-a[1])*(p[0]-c[0]) + (a[0]-c[0])*(p[1]-c[1])) / den
	w2 = 1 - w0 - w1
	return w0, w1, w2, true
}

type edge struct {
	a, b int
}

type edgeUse struct {
	tri    int
	va, vb int // original vertex indices for the welded ends a and b
}

// BuildAdjacency links triangles that share an edge. Edges are matched by
// welded vertex ID (weld may be nil to match raw indices). A link is kept
// only when the UV gap between the two sides of the edge is at most
// threshold, so geometric neighbors split by a UV seam stay separate.
func BuildAdjacency(indices []int, uvs []mathutil.Vec2, weld []int, threshold float64) Adjacency {
	canon := func(v int) int {
		if weld != nil {
			return weld[v]
		}
		return v
	}
	nTri := len(indices) / 3
	edges := make(map[edge][]edgeUse, nTri*3/2)
	for t := 0; t < nTri; t++ {
		for k := 0; k < 3; k++ {
			v0, v1 := indices[t*3+k], indices[t*3+(k+1)%3]
			c0, c1 := canon(v0), canon(v1)
			if c0 == c1 {
				continue
			}
			if c0 > c1 {
				c0, c1 = c1, c0
				v0, v1 = v1, v0
			}
			key := edge{c0, c1}
			edges[key] = append(edges[key], edgeUse{tri: t, va: v0, vb: v1})
		}
	}

	sets := make([]map[int]struct{}, nTri)
	for _, uses := range edges {
		for i := 0; i < len(uses); i++ {
			for j := i + 1; j < len(uses); j++ {
				u, w := uses[i], uses[j]
				if u.tri == w.tri {
					continue
				}
				gap := math.Max(uvs[u.va].Sub(uvs[w.va]).Len(), uvs[u.vb].Sub(uvs[w.vb]).Len())
				if gap > threshold {
					continue
				}
				if sets[u.tri] == nil {
					sets[u.tri] = make(map[int]struct{})
				}
				if sets[w.tri] == nil {
					sets[w.tri] = make(map[int]struct{})
				}
				sets[u.tri][w.tri] = struct{}{}
				sets[w.tri][u.tri] = struct{}{}
			}
		}
	}

	adj := make(Adjacency, nTri)
	for t, s := range sets {
		if len(s) == 0 {
			continue
		}
		list := make([]int, 0, len(s))
		for n := range s {
			list = append(list, n)
		}
		sort.Ints(list)
		adj[t] = list
	}
	return adj
}

// FloodFill returns the sorted triangles reachable from seed. The result
// always contains seed when it is a valid triangle index.
func FloodFill(adj Adjacency, seed int) []int {
	if seed < 0 || seed >= len(adj) {
		return nil
	}
	visited := make([]bool, len(adj))
	stack := []int{seed}
	visited[seed] = true
	var island []int
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		island = append(island, t)
		for _, n := range adj[t] {
			if !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	sort.Ints(island)
	return island
}

// Segment finds the seed triangle, builds the adjacency and flood fills.
func Segment(indices []int, uvs []mathutil.Vec2, weld []int, seed mathutil.Vec2, threshold float64) []int {
	start := FindSeedTriangle(indices, uvs, seed)
	if start < 0 {
		return nil
	}
	return FloodFill(BuildAdjacency(indices, uvs, weld, threshold), start)
}

// Vertices returns the sorted unique vertex indices used by tris.
func Vertices(indices []int, tris []int) []int {
	seen := make(map[int]struct{}, len(tris)*3)
	var out []int
	for _, t := range tris {
		for k := 0; k < 3; k++ {
			v := indices[t*3+k]
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
