package geometry

import (
	"math"
	"sort"

	"fur-mask-baker/internal/mathutil"
)

// DefaultWeldTolerance is the grid size used to treat vertices as co-located.
const DefaultWeldTolerance = 1e-5

type cellKey [3]int64

// Weld maps every vertex to the lowest-indexed vertex sharing its quantized
// position. Vertices that are split only by UV or normal seams end up with
// the same canonical ID.
func Weld(positions []mathutil.Vec3, tolerance float64) []int {
	if tolerance <= 0 {
		tolerance = DefaultWeldTolerance
	}
	inv := 1 / tolerance
	first := make(map[cellKey]int, len(positions))
	out := make([]int, len(positions))
	for i, p := range positions {
		k := cellKey{
			int64(math.Round(p[0] * inv)),
			int64(math.Round(p[1] * inv)),
			int64(math.Round(p[2] * inv)),
		}
		if id, ok := first[k]; ok {
			out[i] = id
			continue
		}
		first[k] = i
		out[i] = i
	}
	return out
}

// VertexNeighbors returns, per vertex, the sorted set of canonical vertices it
// shares a triangle edge with. Lists are keyed and populated by canonical ID;
// non-canonical entries are nil.
func VertexNeighbors(groups []TriangleGroup, canon []int) [][]int {
	sets := make([]map[int]struct{}, len(canon))
	link := func(a, b int) {
		a, b = canon[a], canon[b]
		if a == b {
			return
		}
		if sets[a] == nil {
			sets[a] = make(map[int]struct{})
		}
		if sets[b] == nil {
			sets[b] = make(map[int]struct{})
		}
		sets[a][b] = struct{}{}
		sets[b][a] = struct{}{}
	}
	for gi := range groups {
		idx := groups[gi].Indices
		for t := 0; t+2 < len(idx); t += 3 {
			link(idx[t], idx[t+1])
			link(idx[t+1], idx[t+2])
			link(idx[t+2], idx[t])
		}
	}
	out := make([][]int, len(canon))
	for v, s := range sets {
		if len(s) == 0 {
			continue
		}
		list := make([]int, 0, len(s))
		for n := range s {
			list = append(list, n)
		}
		sort.Ints(list)
		out[v] = list
	}
	return out
}
