package texture

import (
	"image"
	"math"

	"fur-mask-baker/internal/mathutil"
)

// Sample performs bilinear filtering with UV wrapping and returns the four
// channels in [0,1]. UV origin is bottom-left, so v=1 is the first row.
// A non-finite UV samples as all zeros.
func Sample(tex *image.NRGBA, uv mathutil.Vec2) [4]float64 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 || !finite(uv[0]) || !finite(uv[1]) {
		return [4]float64{}
	}

	u := wrap(uv[0])
	v := 1 - wrap(uv[1])

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := min(int(fx), w-1)
	y0 := min(int(fy), h-1)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	pix := tex.Pix
	origin := tex.Rect.Min

	// Four texels
	i00 := tex.PixOffset(origin.X+x0, origin.Y+y0)
	i10 := tex.PixOffset(origin.X+x1, origin.Y+y0)
	i01 := tex.PixOffset(origin.X+x0, origin.Y+y1)
	i11 := tex.PixOffset(origin.X+x1, origin.Y+y1)

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float64
	for c := 0; c < 4; c++ {
		f := float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 +
			float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
		out[c] = f / 255
	}
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// wrap maps x into [0,1).
func wrap(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1 {
		x = 0
	}
	return x
}
