package postprocess

import (
	"image"
	"testing"
)

func TestPadEdgesRadius(t *testing.T) {
	const w, h = 7, 1
	values := make([]float64, w*h)
	written := make([]bool, w*h)
	values[3], written[3] = 0.25, true

	filled := PadEdges(values, written, w, h, 2)
	if filled != 4 {
		t.Errorf("expected 4 texels filled, got %d", filled)
	}
	for x := 0; x < w; x++ {
		inside := x >= 1 && x <= 5
		if written[x] != inside {
			t.Errorf("x=%d: expected written=%v, got %v", x, inside, written[x])
		}
		if inside && values[x] != 0.25 {
			t.Errorf("x=%d: expected 0.25, got %f", x, values[x])
		}
	}
}

func TestPadEdgesKeepsWritten(t *testing.T) {
	values := []float64{0.1, 0, 0.9}
	written := []bool{true, false, true}
	PadEdges(values, written, 3, 1, 4)
	if values[0] != 0.1 || values[2] != 0.9 {
		t.Errorf("expected written texels untouched, got %v", values)
	}
	if !written[1] {
		t.Error("expected gap to be filled")
	}
}

func TestPadEdgesNoop(t *testing.T) {
	values := make([]float64, 4)
	written := make([]bool, 4)
	if n := PadEdges(values, written, 2, 2, 3); n != 0 {
		t.Errorf("expected nothing to fill without sources, got %d", n)
	}
	written[0] = true
	if n := PadEdges(values, written, 2, 2, 0); n != 0 {
		t.Errorf("expected zero radius to be a no-op, got %d", n)
	}
}

func TestDownsample(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 200, 200, 255
	}
	out := Downsample(img, 16)
	if out.Bounds().Dx() != 16 || out.Bounds().Dy() != 8 {
		t.Fatalf("expected 16x8, got %v", out.Bounds())
	}
	got := out.NRGBAAt(8, 4)
	if diff(got.R, 200) > 1 || diff(got.A, 255) > 1 {
		t.Errorf("expected uniform color preserved, got %v", got)
	}
	if Downsample(img, 128) != img {
		t.Error("expected small image returned unchanged")
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
