package texture

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ftrvxmtrx/tga"

	"fur-mask-baker/internal/mathutil"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestLoadTexturePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.png")
	writePNG(t, path, solid(2, 2, color.NRGBA{128, 128, 255, 255}))

	img, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("expected width 2, got %d", img.Bounds().Dx())
	}
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{128, 128, 255, 255}) {
		t.Errorf("expected normal-blue, got %v", got)
	}
}

func TestLoadTextureTGA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n.tga")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tga.Encode(f, solid(3, 2, color.NRGBA{200, 100, 50, 255})); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("expected 3x2, got %v", img.Bounds())
	}
	if got := img.NRGBAAt(2, 1); got != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("expected {200 100 50 255}, got %v", got)
	}
}

func TestLoadTextureErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadTexture(filepath.Join(dir, "x.dds")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := LoadTexture(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTexture(bad); err == nil {
		t.Error("expected decode error")
	}
}

func TestToNRGBAConvertsGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 1, 1))
	g.SetGray(0, 0, color.Gray{Y: 77})
	n := toNRGBA(g)
	if got := n.NRGBAAt(0, 0); got != (color.NRGBA{77, 77, 77, 255}) {
		t.Errorf("expected opaque gray 77, got %v", got)
	}
}

func TestIndexPrefersLossless(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "body", "Body_N.png"), solid(1, 1, color.NRGBA{A: 255}))
	if err := os.WriteFile(filepath.Join(dir, "body_n.jpg"), []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	idx := BuildIndex(dir)
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", idx.Len())
	}
	path, ok := idx.ResolvePath(`Textures\body_n.tga`)
	if !ok || filepath.Ext(path) != ".png" {
		t.Errorf("expected png to win, got %q (%v)", path, ok)
	}
	if _, ok := idx.ResolvePath("other"); ok {
		t.Error("expected unknown stem to miss")
	}
	if path, ok := idx.ResolvePath("body/Body_N.png"); !ok || path != filepath.Join(dir, "body", "Body_N.png") {
		t.Errorf("expected root-relative path to resolve, got %q", path)
	}
}

func TestCacheLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, solid(1, 1, color.NRGBA{1, 2, 3, 255}))

	c := NewCache(BuildIndex(dir))
	var wg sync.WaitGroup
	imgs := make([]*image.NRGBA, 8)
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			imgs[i] = c.Resolve("a")
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(imgs); i++ {
		if imgs[i] != imgs[0] {
			t.Fatal("expected all goroutines to share one decoded image")
		}
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", c.Len())
	}

	if _, err := c.Load("missing"); err == nil {
		t.Error("expected error for missing texture")
	}
}

func TestSampleBottomLeftOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255}) // top-left
	img.SetNRGBA(0, 1, color.NRGBA{0, 255, 0, 255}) // bottom-left
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})

	bl := Sample(img, mathutil.Vec2{0, 0})
	if bl[1] != 1 || bl[0] != 0 {
		t.Errorf("expected green at uv (0,0), got %v", bl)
	}
	tl := Sample(img, mathutil.Vec2{0, 0.999999})
	if tl[0] < 0.99 {
		t.Errorf("expected red near uv (0,1), got %v", tl)
	}
	mid := Sample(img, mathutil.Vec2{0.5, 0.5})
	if math.Abs(mid[3]-1) > 1e-9 {
		t.Errorf("expected opaque alpha, got %f", mid[3])
	}
}

func TestSampleNonFiniteUV(t *testing.T) {
	img := solid(4, 4, color.NRGBA{255, 255, 255, 255})
	for _, uv := range []mathutil.Vec2{
		{math.NaN(), 0.9},
		{0.5, math.NaN()},
		{math.Inf(1), 0.5},
		{0.5, math.Inf(-1)},
	} {
		if got := Sample(img, uv); got != ([4]float64{}) {
			t.Errorf("Sample(%v) = %v, expected zeros", uv, got)
		}
	}
}

func TestSampleSubImage(t *testing.T) {
	img := solid(4, 4, color.NRGBA{255, 0, 0, 255})
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 255, 0, 255})
		}
	}
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)

	got := Sample(sub, mathutil.Vec2{0.5, 0.5})
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("expected green from the sub-image, got %v", got)
	}
}

func TestSampleWrapsLargeUV(t *testing.T) {
	img := solid(2, 2, color.NRGBA{10, 20, 30, 255})
	got := Sample(img, mathutil.Vec2{-3.25, 1e12})
	if math.Abs(got[0]-10.0/255) > 1e-9 {
		t.Errorf("expected uniform color, got %v", got)
	}
}
