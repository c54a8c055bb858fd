// Package raster fills per-vertex mask values into square UV-space
// texel buffers and encodes them as images.
package raster

// MaskBuffer holds one material's mask as flat slices for cache locality.
// Row 0 is the top of the texture (v = 1).
type MaskBuffer struct {
	Size    int
	Values  []float64 // len = Size*Size
	Written []bool    // texels covered by at least one triangle
}

// NewMaskBuffer allocates an empty size×size buffer.
func NewMaskBuffer(size int) *MaskBuffer {
	if size < 0 {
		size = 0
	}
	n := size * size
	return &MaskBuffer{
		Size:    size,
		Values:  make([]float64, n),
		Written: make([]bool, n),
	}
}

// At returns the value at texel (x, y) and whether it was written.
func (b *MaskBuffer) At(x, y int) (float64, bool) {
	i := y*b.Size + x
	return b.Values[i], b.Written[i]
}

// Coverage returns the number of written texels.
func (b *MaskBuffer) Coverage() int {
	n := 0
	for _, w := range b.Written {
		if w {
			n++
		}
	}
	return n
}
