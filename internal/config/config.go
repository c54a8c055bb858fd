// Package config loads bake settings files.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fur-mask-baker/internal/mask"
	"fur-mask-baker/internal/raster"
)

// Config is one bake settings file.
type Config struct {
	Scene      SceneConfig        `yaml:"scene"`
	Output     OutputConfig       `yaml:"output"`
	Bake       BakeConfig         `yaml:"bake"`
	Spheres    []SphereConfig     `yaml:"spheres,omitempty"`
	Islands    []IslandConfig     `yaml:"islands,omitempty"`
	Bones      map[string]float64 `yaml:"bones,omitempty"` // node path → suppression weight
	NormalMaps []NormalMapConfig  `yaml:"normal_maps,omitempty"`
	Logging    LoggingConfig      `yaml:"logging"`

	// Path is the file the config was loaded from, if any.
	Path string `yaml:"-"`
}

// SceneConfig names the scene file and the surfaces to bake against.
type SceneConfig struct {
	File       string   `yaml:"file"`        // .gltf or .glb
	TextureDir string   `yaml:"texture_dir"` // normal map search root; defaults to the scene's directory
	Skin       []string `yaml:"skin"`        // node paths; a path selects its whole subtree
	Cloth      []string `yaml:"cloth,omitempty"`
}

// OutputConfig controls where and how textures are written.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Prefix     string `yaml:"prefix"`     // file name prefix, defaults to the config file stem
	Format     string `yaml:"format"`     // png | webp
	Resolution int    `yaml:"resolution"` // index: 0=512 1=1024 2=2048 3=4096
	Preview    int    `yaml:"preview"`    // preview edge in pixels, 0 disables
}

// BakeConfig holds the numeric bake settings.
type BakeConfig struct {
	MaxDistance         float64 `yaml:"max_distance"`
	Gamma               float64 `yaml:"gamma"`
	Subdivisions        int     `yaml:"subdivisions"`
	SmoothingIterations int     `yaml:"smoothing_iterations"`
	Transparent         bool    `yaml:"transparent"`
	PadRadius           int     `yaml:"pad_radius"`
	Combine             string  `yaml:"combine"` // min | multiply

	ConeSamples      int     `yaml:"cone_samples"`
	ConeAngle        float64 `yaml:"cone_angle"`
	PenetrationDepth float64 `yaml:"penetration_depth"`
	TargetBatches    int     `yaml:"target_batches"`
	MinBatchSize     int     `yaml:"min_batch_size"`
	MaxBatchSize     int     `yaml:"max_batch_size"`
}

// SphereConfig is one spherical suppression volume.
type SphereConfig struct {
	Position  [3]float64 `yaml:"position"`
	Radius    float64    `yaml:"radius"`
	Gradient  float64    `yaml:"gradient"`
	Intensity *float64   `yaml:"intensity,omitempty"` // defaults to 1
	Mirror    bool       `yaml:"mirror"`
}

// IslandConfig selects a UV island that suppresses fur.
type IslandConfig struct {
	Surface   string     `yaml:"surface"`
	Submesh   int        `yaml:"submesh"`
	Seed      [2]float64 `yaml:"seed"`
	Threshold float64    `yaml:"threshold,omitempty"`
	Label     string     `yaml:"label,omitempty"`
	Color     string     `yaml:"color,omitempty"` // hex, overlay only
}

// NormalMapConfig attaches a normal map to a material.
type NormalMapConfig struct {
	Material  string   `yaml:"material"`
	Texture   string   `yaml:"texture"` // path or file stem under scene.texture_dir
	Intensity *float64 `yaml:"intensity,omitempty"`
	Strength  *float64 `yaml:"strength,omitempty"`
	Packing   string   `yaml:"packing,omitempty"` // auto | rgb | ag
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the default bake settings.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:        "masks",
			Format:     "png",
			Resolution: 2,
		},
		Bake: BakeConfig{
			MaxDistance:         0.02,
			Gamma:               1,
			Subdivisions:        0,
			SmoothingIterations: 2,
			PadRadius:           4,
			Combine:             mask.CombineMin.String(),
			ConeSamples:         4,
			ConeAngle:           25,
			TargetBatches:       64,
			MinBatchSize:        256,
			MaxBatchSize:        8192,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML settings file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Flags holds CLI flag values that override settings file values.
type Flags struct {
	OutputDir  string
	Resolution int // -1 keeps the file's value
	Debug      bool
}

// Resolve applies flags and turns relative paths absolute against the
// settings file's directory.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.Output.Dir = flags.OutputDir
	}
	if flags.Resolution >= 0 {
		c.Output.Resolution = flags.Resolution
	}
	if flags.Debug {
		c.Logging.Level = "debug"
	}

	base := "."
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}
	c.Scene.File = resolvePath(base, c.Scene.File)
	if c.Scene.TextureDir == "" && c.Scene.File != "" {
		c.Scene.TextureDir = filepath.Dir(c.Scene.File)
	} else {
		c.Scene.TextureDir = resolvePath(base, c.Scene.TextureDir)
	}
	c.Output.Dir = resolvePath(base, c.Output.Dir)
	c.Logging.LogFile = resolvePath(base, c.Logging.LogFile)

	if c.Output.Prefix == "" && c.Path != "" {
		c.Output.Prefix = strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
	}
	if c.Output.Format == "" {
		c.Output.Format = "png"
	}
	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Bake.Combine == "" {
		c.Bake.Combine = mask.CombineMin.String()
	}
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Scene.File == "" {
		errs = append(errs, errors.New("scene.file is required"))
	}
	if len(c.Scene.Skin) == 0 {
		errs = append(errs, errors.New("scene.skin lists no surfaces"))
	}
	switch c.Output.Format {
	case "png", "webp":
	default:
		errs = append(errs, fmt.Errorf("output.format %q: want png or webp", c.Output.Format))
	}
	if c.Output.Resolution < 0 || c.Output.Resolution >= len(raster.Resolutions) {
		errs = append(errs, fmt.Errorf("output.resolution %d: want 0..%d", c.Output.Resolution, len(raster.Resolutions)-1))
	}
	if c.Output.Preview < 0 {
		errs = append(errs, fmt.Errorf("output.preview %d is negative", c.Output.Preview))
	}
	if !finite(c.Bake.MaxDistance) || c.Bake.MaxDistance < 0 {
		errs = append(errs, fmt.Errorf("bake.max_distance %v is invalid", c.Bake.MaxDistance))
	}
	if !finite(c.Bake.Gamma) || c.Bake.Gamma < 0 {
		errs = append(errs, fmt.Errorf("bake.gamma %v is invalid", c.Bake.Gamma))
	}
	if c.Bake.PadRadius < 0 {
		errs = append(errs, fmt.Errorf("bake.pad_radius %d is negative", c.Bake.PadRadius))
	}
	if _, err := mask.ParseCombineMode(c.Bake.Combine); err != nil {
		errs = append(errs, err)
	}
	for i, s := range c.Spheres {
		if s.Radius < 0 || s.Gradient < 0 {
			errs = append(errs, fmt.Errorf("spheres[%d]: negative radius or gradient", i))
		}
	}
	for i, is := range c.Islands {
		if is.Surface == "" {
			errs = append(errs, fmt.Errorf("islands[%d]: surface is required", i))
		}
	}
	for i, nm := range c.NormalMaps {
		if nm.Material == "" || nm.Texture == "" {
			errs = append(errs, fmt.Errorf("normal_maps[%d]: material and texture are required", i))
		}
		if _, err := parsePacking(nm.Packing); err != nil {
			errs = append(errs, fmt.Errorf("normal_maps[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SaveTo writes the config as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
