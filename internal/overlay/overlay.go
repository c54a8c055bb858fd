// Package overlay draws UV layouts with highlighted islands, for checking
// island seeds before a bake.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"fur-mask-baker/internal/geometry"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/uvisland"
)

// Options controls overlay drawing.
type Options struct {
	Size       int
	LineWidth  float64
	Background color.NRGBA
	Wire       color.NRGBA
	FillAlpha  uint8 // island fill opacity; the mask color's own alpha is ignored
	SeedRadius float64
}

// DefaultOptions returns a dark background with light gray wires.
func DefaultOptions() Options {
	return Options{
		Size:       1024,
		LineWidth:  1,
		Background: color.NRGBA{R: 24, G: 24, B: 28, A: 255},
		Wire:       color.NRGBA{R: 200, G: 200, B: 200, A: 255},
		FillAlpha:  140,
		SeedRadius: 4,
	}
}

// Island reports what one mask selected.
type Island struct {
	Label     string
	Triangles int
	Found     bool
}

// Render draws every triangle of the given material and fills the islands
// selected by masks. Masks on surfaces outside the material still report,
// but draw nothing.
func Render(b *geometry.Buffers, material string, masks []uvisland.Mask, opts Options) (*image.NRGBA, []Island, error) {
	if opts.Size <= 0 {
		return nil, nil, fmt.Errorf("overlay: invalid size %d", opts.Size)
	}
	dc := gg.NewContext(opts.Size, opts.Size)
	defer dc.Close()

	dc.SetColor(opts.Background)
	dc.DrawRectangle(0, 0, float64(opts.Size), float64(opts.Size))
	if err := dc.Fill(); err != nil {
		return nil, nil, fmt.Errorf("overlay: background: %w", err)
	}

	weld := geometry.Weld(b.Positions, geometry.DefaultWeldTolerance)
	size := float64(opts.Size)

	islands := make([]Island, len(masks))
	for i := range masks {
		m := &masks[i]
		islands[i].Label = m.Label
		g := b.FindGroup(m.SurfacePath, m.Submesh)
		if g < 0 {
			continue
		}
		grp := &b.Groups[g]
		tris := uvisland.Segment(grp.Indices, b.UVs, weld, m.Seed, m.EffectiveThreshold())
		islands[i].Found = len(tris) > 0
		islands[i].Triangles = len(tris)
		if grp.Material != material {
			continue
		}
		fill := m.Color
		fill.A = opts.FillAlpha
		dc.SetColor(fill)
		for _, t := range tris {
			path(dc, b.UVs, grp.Indices[3*t:3*t+3], size)
		}
		if err := dc.Fill(); err != nil {
			return nil, nil, fmt.Errorf("overlay: island %q: %w", m.Label, err)
		}
	}

	dc.SetColor(opts.Wire)
	dc.SetLineWidth(opts.LineWidth)
	for _, grp := range b.Groups {
		if grp.Material != material {
			continue
		}
		for t := 0; t+2 < len(grp.Indices); t += 3 {
			path(dc, b.UVs, grp.Indices[t:t+3], size)
		}
	}
	if err := dc.Stroke(); err != nil {
		return nil, nil, fmt.Errorf("overlay: wireframe: %w", err)
	}

	for i := range masks {
		m := &masks[i]
		c := m.Color
		c.A = 255
		dc.SetColor(c)
		x, y := texel(m.Seed, size)
		dc.DrawCircle(x, y, opts.SeedRadius)
		if err := dc.Fill(); err != nil {
			return nil, nil, fmt.Errorf("overlay: seed %q: %w", m.Label, err)
		}
	}

	src := dc.Image()
	out := image.NewNRGBA(src.Bounds())
	draw.Copy(out, image.Point{}, src, src.Bounds(), draw.Src, nil)
	return out, islands, nil
}

// Materials lists the material names present in b, in first-use order.
func Materials(b *geometry.Buffers) []string {
	var out []string
	seen := make(map[string]bool)
	for _, g := range b.Groups {
		if !seen[g.Material] {
			seen[g.Material] = true
			out = append(out, g.Material)
		}
	}
	return out
}

func path(dc *gg.Context, uvs []mathutil.Vec2, tri []int, size float64) {
	x, y := texel(uvs[tri[0]], size)
	dc.MoveTo(x, y)
	for _, v := range tri[1:] {
		x, y = texel(uvs[v], size)
		dc.LineTo(x, y)
	}
	dc.ClosePath()
}

// texel maps a bottom-left UV to top-left pixel coordinates.
func texel(uv mathutil.Vec2, size float64) (float64, float64) {
	return uv[0] * size, (1 - uv[1]) * size
}
