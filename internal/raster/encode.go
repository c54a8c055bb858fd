package raster

import (
	"image"
	"math"
)

// TransparentCutoff is the encoded value at or above which a texel is fully
// transparent in transparent mode.
const TransparentCutoff = 1 - 1.0/512

// Encode converts buf into an image. Each texel value v (unwritten texels
// count as 1) is gamma corrected to g = v^gamma. Opaque mode writes gray g
// with full alpha; transparent mode writes RGB g with alpha 1-g, and alpha 0
// once g reaches TransparentCutoff.
func Encode(buf *MaskBuffer, gamma float64, transparent bool) *image.NRGBA {
	if gamma <= 0 || math.IsNaN(gamma) {
		gamma = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, buf.Size, buf.Size))
	for y := 0; y < buf.Size; y++ {
		off := y * img.Stride
		row := y * buf.Size
		for x := 0; x < buf.Size; x++ {
			v := 1.0
			if buf.Written[row+x] {
				v = buf.Values[row+x]
			}
			g := EncodeValue(v, gamma)
			c := clamp255(g * 255)
			i := off + x*4
			img.Pix[i] = c
			img.Pix[i+1] = c
			img.Pix[i+2] = c
			switch {
			case !transparent:
				img.Pix[i+3] = 255
			case g >= TransparentCutoff:
				img.Pix[i+3] = 0
			default:
				img.Pix[i+3] = clamp255((1 - g) * 255)
			}
		}
	}
	return img
}

// EncodeValue clamps v to [0,1] and applies gamma.
func EncodeValue(v, gamma float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return math.Pow(v, gamma)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
