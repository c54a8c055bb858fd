package geometry

import (
	"math"

	"fur-mask-baker/internal/mathutil"
)

// ComputeTangents generates per-vertex tangents from positions, UVs and
// normals over a flat triangle list. The W component carries the bitangent
// handedness. Triangles with a degenerate UV area are skipped.
func ComputeTangents(positions []mathutil.Vec3, uvs []mathutil.Vec2, normals []mathutil.Vec3, indices []int) []mathutil.Vec4 {
	n := len(positions)
	tan := make([]mathutil.Vec3, n)
	bit := make([]mathutil.Vec3, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if !inRange(i0, n) || !inRange(i1, n) || !inRange(i2, n) ||
			!inRange(i0, len(uvs)) || !inRange(i1, len(uvs)) || !inRange(i2, len(uvs)) {
			continue
		}
		e1 := positions[i1].Sub(positions[i0])
		e2 := positions[i2].Sub(positions[i0])
		du1 := uvs[i1][0] - uvs[i0][0]
		dv1 := uvs[i1][1] - uvs[i0][1]
		du2 := uvs[i2][0] - uvs[i0][0]
		dv2 := uvs[i2][1] - uvs[i0][1]

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			continue
		}
		r := 1 / denom
		t := e1.Scale(dv2 * r).Sub(e2.Scale(dv1 * r))
		b := e2.Scale(du1 * r).Sub(e1.Scale(du2 * r))
		for _, v := range [3]int{i0, i1, i2} {
			tan[v] = tan[v].Add(t)
			bit[v] = bit[v].Add(b)
		}
	}

	out := make([]mathutil.Vec4, n)
	for i := 0; i < n; i++ {
		var nrm mathutil.Vec3
		if i < len(normals) {
			nrm = normals[i]
		}
		// Gram-Schmidt against the normal.
		t := tan[i].Sub(nrm.Scale(nrm.Dot(tan[i])))
		if t.Dot(t) < 1e-16 {
			if math.Abs(nrm[0]) < 0.9 {
				t = mathutil.Vec3{1, 0, 0}.Sub(nrm.Scale(nrm[0]))
			} else {
				t = mathutil.Vec3{0, 1, 0}.Sub(nrm.Scale(nrm[1]))
			}
		}
		t = t.Normalize()
		w := 1.0
		if nrm.Cross(t).Dot(bit[i]) < 0 {
			w = -1
		}
		out[i] = mathutil.Vec4{t[0], t[1], t[2], w}
	}
	return out
}
