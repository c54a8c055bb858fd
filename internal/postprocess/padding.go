// Package postprocess cleans up baked mask textures: seam padding and
// preview downscaling.
package postprocess

// PadEdges dilates written texels into unwritten ones up to radius steps
// (8-connected), so bilinear filtering near UV borders does not pull in the
// background. Each padded texel copies the value of the texel it was reached
// from; written is updated in place. Returns the number of texels filled.
func PadEdges(values []float64, written []bool, w, h, radius int) int {
	if radius <= 0 || w <= 0 || h <= 0 || len(values) < w*h || len(written) < w*h {
		return 0
	}

	dist := make([]int32, w*h)
	queue := make([]int, 0, 1024)
	seeded := false
	for i := 0; i < w*h; i++ {
		if written[i] {
			queue = append(queue, i)
			seeded = true
		} else {
			dist[i] = -1
		}
	}
	if !seeded {
		return 0
	}

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	filled := 0
	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		if int(dist[curr]) >= radius {
			continue
		}
		cy := curr / w
		cx := curr % w
		for d := 0; d < 8; d++ {
			nx := cx + dx[d]
			ny := cy + dy[d]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if dist[ni] >= 0 {
				continue
			}
			dist[ni] = dist[curr] + 1
			values[ni] = values[curr]
			written[ni] = true
			filled++
			queue = append(queue, ni)
		}
	}
	return filled
}
