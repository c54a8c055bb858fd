package raster

import (
	"math"

	"fur-mask-baker/internal/mathutil"
)

// edgeEpsilon admits texel centers lying exactly on a shared edge to both
// triangles so neighboring triangles leave no gaps.
const edgeEpsilon = 1e-9

// FillTriangle rasterizes one UV triangle into buf. Texel centers inside the
// triangle receive the barycentric interpolation of values, clamped to
// [0,1]. Where triangles overlap the smaller value is kept.
//
// This is the hot path; the inner loop does not allocate.
func FillTriangle(buf *MaskBuffer, uvs [3]mathutil.Vec2, values [3]float64) {
	size := buf.Size
	if size == 0 {
		return
	}
	fs := float64(size)

	// Texel space: x right, y down.
	x0, y0 := uvs[0][0]*fs, (1-uvs[0][1])*fs
	x1, y1 := uvs[1][0]*fs, (1-uvs[1][1])*fs
	x2, y2 := uvs[2][0]*fs, (1-uvs[2][1])*fs
	if !finite(x0, y0, x1, y1, x2, y2) {
		return
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= size {
		maxX = size - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= size {
		maxY = size - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	v0, v1, v2 := values[0], values[1], values[2]

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -edgeEpsilon || w1 < -edgeEpsilon || w2 < -edgeEpsilon {
				continue
			}

			v := mathutil.Clamp01(w0*v0 + w1*v1 + w2*v2)
			i := rowOff + sx
			if !buf.Written[i] || v < buf.Values[i] {
				buf.Values[i] = v
				buf.Written[i] = true
			}
		}
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
