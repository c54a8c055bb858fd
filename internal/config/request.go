package config

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"fur-mask-baker/internal/bake"
	"fur-mask-baker/internal/distance"
	"fur-mask-baker/internal/gltfscene"
	"fur-mask-baker/internal/mask"
	"fur-mask-baker/internal/mathutil"
	"fur-mask-baker/internal/normalmap"
	"fur-mask-baker/internal/texture"
	"fur-mask-baker/internal/uvisland"
)

// islandPalette colors islands that have no color set.
var islandPalette = []string{"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4", "#42d4f4"}

func parsePacking(s string) (*bool, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return nil, nil
	case "rgb":
		v := false
		return &v, nil
	case "ag":
		v := true
		return &v, nil
	}
	return nil, fmt.Errorf("packing %q: want auto, rgb or ag", s)
}

// Masks returns the configured UV island masks.
func (c *Config) Masks() []uvisland.Mask {
	out := make([]uvisland.Mask, len(c.Islands))
	for i, is := range c.Islands {
		hex := is.Color
		if hex == "" {
			hex = islandPalette[i%len(islandPalette)]
		}
		label := is.Label
		if label == "" {
			label = fmt.Sprintf("island_%d", i)
		}
		out[i] = uvisland.Mask{
			SurfacePath: strings.Trim(is.Surface, "/"),
			Submesh:     is.Submesh,
			Seed:        mathutil.Vec2(is.Seed),
			Threshold:   is.Threshold,
			Label:       label,
			Color:       gg.Hex(hex).Color().(color.NRGBA),
		}
	}
	return out
}

// SphereMasks returns the configured sphere masks.
func (c *Config) SphereMasks() []mask.Sphere {
	out := make([]mask.Sphere, len(c.Spheres))
	for i, s := range c.Spheres {
		intensity := 1.0
		if s.Intensity != nil {
			intensity = *s.Intensity
		}
		out[i] = mask.Sphere{
			Position:  mathutil.Vec3(s.Position),
			Radius:    s.Radius,
			Gradient:  s.Gradient,
			Intensity: intensity,
			Mirror:    s.Mirror,
		}
	}
	return out
}

// NormalMapEntries returns the configured normal maps. Packing has already
// been checked by Validate.
func (c *Config) NormalMapEntries() []normalmap.Entry {
	out := make([]normalmap.Entry, 0, len(c.NormalMaps))
	for _, nm := range c.NormalMaps {
		packed, _ := parsePacking(nm.Packing)
		e := normalmap.Entry{
			Material:  nm.Material,
			Path:      nm.Texture,
			Intensity: 1,
			Strength:  1,
			Packed:    packed,
		}
		if nm.Intensity != nil {
			e.Intensity = *nm.Intensity
		}
		if nm.Strength != nil {
			e.Strength = *nm.Strength
		}
		out = append(out, e)
	}
	return out
}

// Request builds a bake request against a loaded scene. Callbacks are left
// for the caller. Skin and cloth paths that match no surface are returned
// so the caller can report them.
func (c *Config) Request(scene *gltfscene.Scene, textures texture.Resolver, log *zap.Logger) (bake.Request, []string, error) {
	combine, err := mask.ParseCombineMode(c.Bake.Combine)
	if err != nil {
		return bake.Request{}, nil, fmt.Errorf("config: %w", err)
	}
	skin, missingSkin := scene.Select(c.Scene.Skin)
	cloth, missingCloth := scene.Select(c.Scene.Cloth)

	sampling := distance.DefaultOptions()
	sampling.ConeSamples = c.Bake.ConeSamples
	sampling.ConeAngle = c.Bake.ConeAngle
	sampling.PenetrationDepth = c.Bake.PenetrationDepth
	if c.Bake.TargetBatches > 0 {
		sampling.TargetBatches = c.Bake.TargetBatches
	}
	if c.Bake.MinBatchSize > 0 {
		sampling.MinBatchSize = c.Bake.MinBatchSize
	}
	if c.Bake.MaxBatchSize > 0 {
		sampling.MaxBatchSize = c.Bake.MaxBatchSize
	}

	bones := make(map[string]float64, len(c.Bones))
	for path, w := range c.Bones {
		bones[strings.Trim(path, "/")] = w
	}

	req := bake.Request{
		Skin:                skin,
		Cloth:               cloth,
		Spheres:             c.SphereMasks(),
		Islands:             c.Masks(),
		Bones:               bones,
		Graph:               scene.Hierarchy,
		NormalMaps:          c.NormalMapEntries(),
		Textures:            textures,
		Resolution:          c.Output.Resolution,
		MaxDistance:         c.Bake.MaxDistance,
		Gamma:               c.Bake.Gamma,
		Subdivisions:        c.Bake.Subdivisions,
		SmoothingIterations: c.Bake.SmoothingIterations,
		Transparent:         c.Bake.Transparent,
		PadRadius:           c.Bake.PadRadius,
		Combine:             combine,
		Sampling:            sampling,
		Log:                 log,
	}
	return req, append(missingSkin, missingCloth...), nil
}
