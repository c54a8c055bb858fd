package geometry

import "fur-mask-baker/internal/mathutil"

// MaxSubdivisions bounds the subdivision count; each level quadruples triangles.
const MaxSubdivisions = 3

type edgeKey struct {
	a, b int
}

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Subdivide splits every triangle of every group into four, n times, with n
// clamped to [0, MaxSubdivisions]. Midpoints are memoized per unordered edge
// so triangles sharing an edge share the new vertex.
func (b *Buffers) Subdivide(n int) {
	if n < 0 {
		n = 0
	}
	if n > MaxSubdivisions {
		n = MaxSubdivisions
	}
	for iter := 0; iter < n; iter++ {
		mids := make(map[edgeKey]int)
		for gi := range b.Groups {
			g := &b.Groups[gi]
			out := make([]int, 0, len(g.Indices)*4)
			for t := 0; t+2 < len(g.Indices); t += 3 {
				v0, v1, v2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
				m01 := b.midpoint(mids, v0, v1)
				m12 := b.midpoint(mids, v1, v2)
				m20 := b.midpoint(mids, v2, v0)
				out = append(out,
					v0, m01, m20,
					m01, v1, m12,
					m20, m12, v2,
					m01, m12, m20,
				)
			}
			g.Indices = out
		}
	}
}

func (b *Buffers) midpoint(mids map[edgeKey]int, a, c int) int {
	key := makeEdgeKey(a, c)
	if id, ok := mids[key]; ok {
		return id
	}
	// Interpolate from the lower index so the result is order independent.
	a, c = key.a, key.b

	n := b.Normals[a].Lerp(b.Normals[c], 0.5).Normalize()
	if n == (mathutil.Vec3{}) {
		n = b.Normals[a]
	}
	ta, tc := b.Tangents[a], b.Tangents[c]
	txyz := ta.XYZ().Lerp(tc.XYZ(), 0.5).Normalize()
	if txyz == (mathutil.Vec3{}) {
		txyz = ta.XYZ()
	}

	id := len(b.Positions)
	b.Positions = append(b.Positions, b.Positions[a].Lerp(b.Positions[c], 0.5))
	b.Normals = append(b.Normals, n)
	b.UVs = append(b.UVs, b.UVs[a].Lerp(b.UVs[c], 0.5))
	b.Tangents = append(b.Tangents, mathutil.Vec4{txyz[0], txyz[1], txyz[2], ta.Handedness()})
	b.BoneMask = append(b.BoneMask, (b.BoneMask[a]+b.BoneMask[c])*0.5)
	b.Material = append(b.Material, b.Material[a])

	mids[key] = id
	return id
}
