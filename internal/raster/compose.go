package raster

import (
	"image"

	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/postprocess"
)

// Resolutions maps a resolution index to the output texture size.
var Resolutions = [...]int{512, 1024, 2048, 4096}

// ResolutionSize returns the size for index i, clamping out-of-range
// indices to the nearest valid one.
func ResolutionSize(i int) int {
	if i < 0 {
		i = 0
	}
	if i >= len(Resolutions) {
		i = len(Resolutions) - 1
	}
	return Resolutions[i]
}

// ComposeOptions controls texture output.
type ComposeOptions struct {
	Size        int
	Gamma       float64
	Transparent bool
	PadRadius   int // edge padding in texels, 0 disables
}

// Rasterize fills every triangle group of b into one buffer per material.
// values holds one mask value per vertex.
func Rasterize(b *geometry.Buffers, values []float64, size int) map[string]*MaskBuffer {
	out := make(map[string]*MaskBuffer)
	for gi := range b.Groups {
		g := &b.Groups[gi]
		buf, ok := out[g.Material]
		if !ok {
			buf = NewMaskBuffer(size)
			out[g.Material] = buf
		}
		for t := 0; t+2 < len(g.Indices); t += 3 {
			i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
			FillTriangle(buf,
				[3]mathutil.Vec2{b.UVs[i0], b.UVs[i1], b.UVs[i2]},
				[3]float64{values[i0], values[i1], values[i2]},
			)
		}
	}
	return out
}

// Compose rasterizes, pads and encodes one texture per material name
// referenced by any triangle group.
func Compose(b *geometry.Buffers, values []float64, opts ComposeOptions) map[string]*image.NRGBA {
	bufs := Rasterize(b, values, opts.Size)
	out := make(map[string]*image.NRGBA, len(bufs))
	for name, buf := range bufs {
		postprocess.PadEdges(buf.Values, buf.Written, buf.Size, buf.Size, opts.PadRadius)
		out[name] = Encode(buf, opts.Gamma, opts.Transparent)
	}
	return out
}
